package activity

import "github.com/starford/jobtrail/internal/models"

// dedupKey is the identity of an event for display purposes. Location and
// employment type are deliberately not part of it.
type dedupKey struct {
	kind     models.Kind
	date     string
	title    string
	subtitle string
	time     string
}

func keyOf(ev models.Event) dedupKey {
	return dedupKey{
		kind:     ev.Kind,
		date:     ev.Date,
		title:    ev.Title,
		subtitle: ev.Subtitle,
		time:     ev.Time,
	}
}

// Dedup keeps the first event for every (kind, date, title, subtitle, time)
// and preserves order.
func Dedup(events []models.Event) []models.Event {
	seen := make(map[dedupKey]struct{}, len(events))
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		k := keyOf(ev)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, ev)
	}
	return out
}
