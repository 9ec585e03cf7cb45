package activity

import (
	"strings"
	"time"

	"github.com/starford/jobtrail/internal/models"
)

// Sources maps each collection to its raw records. Missing collections are
// treated as empty.
type Sources map[models.Collection][]models.Record

// emitRule derives one event kind from a record. The first field in
// dateFields that normalizes wins.
type emitRule struct {
	kind       models.Kind
	dateFields []string
	withTime   bool
}

type collectionRule struct {
	collection models.Collection
	emits      []emitRule
}

// rules is applied in order; the order decides which duplicate survives
// Dedup.
var rules = []collectionRule{
	{
		collection: models.CollectionInterviews,
		emits: []emitRule{
			{kind: models.KindInterview, dateFields: []string{"date"}, withTime: true},
		},
	},
	{
		collection: models.CollectionRejections,
		emits: []emitRule{
			{kind: models.KindApplied, dateFields: []string{"appliedDate"}},
			{kind: models.KindRejected, dateFields: []string{"decisionDate"}},
		},
	},
	{
		collection: models.CollectionWithdrawals,
		emits: []emitRule{
			{kind: models.KindApplied, dateFields: []string{"appliedOn", "appliedDate"}},
			{kind: models.KindInterview, dateFields: []string{"interviewDate"}, withTime: true},
			{kind: models.KindWithdrawn, dateFields: []string{"withdrawnDate"}},
		},
	},
	{
		collection: models.CollectionApplications,
		emits: []emitRule{
			{kind: models.KindApplied, dateFields: []string{"appliedOn", "appliedDate", "date", "createdAt"}},
		},
	},
	{
		collection: models.CollectionOffers,
		emits: []emitRule{
			{kind: models.KindOffer, dateFields: []string{"offerDate", "acceptedDate", "createdAt"}},
		},
	},
}

var (
	titleFields    = []string{"company", "companyName"}
	subtitleFields = []string{"role", "position"}
)

// DateFields returns the candidate date fields for a collection, in
// priority order and across all kinds it emits.
func DateFields(c models.Collection) []string {
	var out []string
	for _, cr := range rules {
		if cr.collection != c {
			continue
		}
		for _, e := range cr.emits {
			out = append(out, e.dateFields...)
		}
	}
	return out
}

// Collect produces events from every collection in scan order without
// removing duplicates.
func Collect(src Sources) []models.Event {
	var out []models.Event
	for _, cr := range rules {
		for _, rec := range src[cr.collection] {
			if rec == nil {
				continue
			}
			for _, e := range cr.emits {
				if ev, ok := e.apply(rec); ok {
					out = append(out, ev)
				}
			}
		}
	}
	return out
}

// Build returns the canonical, deduplicated event set.
func Build(src Sources) []models.Event {
	return Dedup(Collect(src))
}

func (e emitRule) apply(rec models.Record) (models.Event, bool) {
	var (
		raw  any
		date string
	)
	for _, f := range e.dateFields {
		if d, ok := NormalizeDate(rec[f]); ok {
			raw, date = rec[f], d
			break
		}
	}
	if date == "" {
		return models.Event{}, false
	}

	ev := models.Event{
		Date:           date,
		Kind:           e.kind,
		Title:          firstString(rec, titleFields),
		Subtitle:       firstString(rec, subtitleFields),
		Location:       rec.String("location"),
		EmploymentType: rec.String("employmentType"),
	}
	if ev.Title == "" {
		ev.Title = e.kind.Label()
	}
	if e.withTime {
		if t, ok := ExtractTime(raw); ok {
			ev.Time = t
			// Unpadded values are only reachable through Date and Time.
			if s := strings.TrimSpace(raw.(string)); isTimestamp(s) {
				ev.DateTime = s
			}
		}
	}

	ref := rec.ID()
	if ref == "" {
		ref = date
	}
	ev.ID = string(e.kind) + "-" + ref
	return ev, true
}

// isTimestamp reports whether s is a zero-padded ISO timestamp that
// ParseTimestamp accepts.
func isTimestamp(s string) bool {
	_, ok := ParseTimestamp(s, time.UTC)
	return ok
}

func firstString(rec models.Record, keys []string) string {
	for _, k := range keys {
		if s := rec.String(k); s != "" {
			return s
		}
	}
	return ""
}
