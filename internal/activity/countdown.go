package activity

import (
	"sort"
	"time"

	"github.com/starford/jobtrail/internal/models"
)

const (
	// StartOfDay is the fallback time for countdowns to date-only events.
	StartOfDay = "00:00:00"
	// EndOfDay is the fallback used when picking upcoming interviews, so a
	// same-day interview without a time stays upcoming for the whole day.
	EndOfDay = "23:59:59"

	// DefaultUpcomingLimit caps the upcoming interview list.
	DefaultUpcomingLimit = 5
)

// localLayouts are tried for timestamps that carry no UTC offset.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// EffectiveTimestamp returns the most precise timestamp known for ev:
// its original DateTime, else Date+Time, else Date with fallback.
func EffectiveTimestamp(ev models.Event, fallback string) string {
	switch {
	case ev.DateTime != "":
		return ev.DateTime
	case ev.Time != "":
		return ev.Date + "T" + ev.Time
	default:
		return ev.Date + "T" + fallback
	}
}

// ParseTimestamp parses an effective timestamp. Values without an offset
// are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Countdown breaks the distance between ev and now into days, hours,
// minutes and seconds. It reports false when now is the zero time (no
// clock yet) or the event timestamp cannot be parsed.
func Countdown(ev models.Event, now time.Time, loc *time.Location) (models.CountdownParts, bool) {
	if now.IsZero() {
		return models.CountdownParts{}, false
	}
	at, ok := ParseTimestamp(EffectiveTimestamp(ev, StartOfDay), loc)
	if !ok {
		return models.CountdownParts{}, false
	}
	diff := at.Sub(now)
	parts := models.CountdownParts{IsPast: diff < 0}
	if diff < 0 {
		diff = -diff
	}
	total := int64(diff / time.Second)
	parts.Days = int(total / 86400)
	parts.Hours = int(total % 86400 / 3600)
	parts.Minutes = int(total % 3600 / 60)
	parts.Seconds = int(total % 60)
	return parts, true
}

// UpcomingInterviews returns at most limit interviews that have not passed
// yet, earliest first. A limit of zero or less means DefaultUpcomingLimit.
func UpcomingInterviews(events []models.Event, now time.Time, loc *time.Location, limit int) []models.Event {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	type candidate struct {
		ev  models.Event
		key string
	}
	var cands []candidate
	for _, ev := range events {
		if ev.Kind != models.KindInterview {
			continue
		}
		key := EffectiveTimestamp(ev, EndOfDay)
		at, ok := ParseTimestamp(key, loc)
		if !ok || at.Before(now) {
			continue
		}
		cands = append(cands, candidate{ev: ev, key: key})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].key < cands[j].key })
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]models.Event, len(cands))
	for i, c := range cands {
		out[i] = c.ev
	}
	return out
}

// SplitNext separates the nearest upcoming event from the rest.
func SplitNext(upcoming []models.Event) (*models.Event, []models.Event) {
	if len(upcoming) == 0 {
		return nil, []models.Event{}
	}
	next := upcoming[0]
	return &next, upcoming[1:]
}
