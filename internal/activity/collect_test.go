package activity

import (
	"testing"
	"time"

	"github.com/starford/jobtrail/internal/models"
)

func countKind(events []models.Event, k models.Kind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

func TestBuild_AppliedDedupAcrossCollections(t *testing.T) {
	src := Sources{
		models.CollectionApplications: {
			{"id": "x", "company": "Acme", "role": "Engineer", "appliedOn": "2025-01-05"},
		},
		models.CollectionRejections: {
			{"id": "x", "company": "Acme", "role": "Engineer", "appliedDate": "2025-01-05", "decisionDate": "2025-01-20"},
		},
	}
	events := Build(src)
	if n := countKind(events, models.KindApplied); n != 1 {
		t.Fatalf("applied events = %d, want 1: %+v", n, events)
	}
	if n := countKind(events, models.KindRejected); n != 1 {
		t.Fatalf("rejected events = %d, want 1", n)
	}
	for _, ev := range events {
		if ev.Kind == models.KindApplied && ev.Date != "2025-01-05" {
			t.Errorf("applied date = %q", ev.Date)
		}
	}
}

func TestCollect_WithdrawalTriple(t *testing.T) {
	src := Sources{
		models.CollectionWithdrawals: {
			{
				"id":            "w1",
				"company":       "Globex",
				"role":          "SRE",
				"appliedOn":     "2025-02-01",
				"interviewDate": "2025-02-10T14:30:00",
				"withdrawnDate": "2025-02-15",
			},
		},
	}
	events := Collect(src)
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(events), events)
	}
	want := []struct {
		kind models.Kind
		date string
		time string
	}{
		{models.KindApplied, "2025-02-01", ""},
		{models.KindInterview, "2025-02-10", "14:30"},
		{models.KindWithdrawn, "2025-02-15", ""},
	}
	for i, w := range want {
		ev := events[i]
		if ev.Kind != w.kind || ev.Date != w.date || ev.Time != w.time {
			t.Errorf("event[%d] = %+v, want %+v", i, ev, w)
		}
	}
	if events[1].DateTime != "2025-02-10T14:30:00" {
		t.Errorf("interview dateTime = %q", events[1].DateTime)
	}
	if events[0].DateTime != "" || events[2].DateTime != "" {
		t.Error("non-interview events should not carry dateTime")
	}
}

func TestCollect_MalformedDateSkipped(t *testing.T) {
	src := Sources{
		models.CollectionApplications: {
			{"id": "bad", "company": "Nope", "date": "not-a-date"},
			{"id": "good", "company": "Yes", "date": "2025-03-03"},
		},
	}
	events := Collect(src)
	if len(events) != 1 || events[0].Title != "Yes" {
		t.Fatalf("events = %+v, want only the valid record", events)
	}
}

func TestCollect_FieldPriority(t *testing.T) {
	src := Sources{
		models.CollectionApplications: {
			{"id": "a", "appliedDate": "2025-04-02", "date": "2025-04-03", "createdAt": "2025-04-04T10:00:00Z"},
			{"id": "b", "appliedOn": "garbage", "createdAt": "2025-04-05T10:00:00Z"},
		},
		models.CollectionOffers: {
			{"id": "o", "company": "Initech", "acceptedDate": "2025-05-01", "createdAt": "2025-04-28"},
		},
	}
	events := Collect(src)
	got := map[string]string{}
	for _, ev := range events {
		got[ev.ID] = ev.Date
	}
	if got["applied-a"] != "2025-04-02" {
		t.Errorf("applied-a date = %q", got["applied-a"])
	}
	if got["applied-b"] != "2025-04-05" {
		t.Errorf("applied-b date = %q", got["applied-b"])
	}
	if got["offer-o"] != "2025-05-01" {
		t.Errorf("offer-o date = %q", got["offer-o"])
	}
}

func TestCollect_TitleFallbackAndIDs(t *testing.T) {
	src := Sources{
		models.CollectionInterviews: {
			{"date": "2025-06-01"},
		},
	}
	events := Collect(src)
	if len(events) != 1 {
		t.Fatalf("len = %d", len(events))
	}
	ev := events[0]
	if ev.Title != "Interview" {
		t.Errorf("title = %q, want Interview", ev.Title)
	}
	if ev.ID != "interview-2025-06-01" {
		t.Errorf("id = %q", ev.ID)
	}
	if ev.Time != "" || ev.DateTime != "" {
		t.Errorf("date-only interview has time %q / %q", ev.Time, ev.DateTime)
	}

	again := Collect(src)
	if again[0].ID != ev.ID {
		t.Error("ids are not stable across runs")
	}
}

func TestCollect_EmptyAndNilRecords(t *testing.T) {
	if got := Collect(nil); len(got) != 0 {
		t.Errorf("nil sources produced %d events", len(got))
	}
	src := Sources{models.CollectionOffers: {nil, {}}}
	if got := Collect(src); len(got) != 0 {
		t.Errorf("empty records produced %d events", len(got))
	}
}

func TestCollect_RejectionWithoutAppliedDate(t *testing.T) {
	src := Sources{
		models.CollectionRejections: {
			{"id": 7.0, "company": "Umbrella", "decisionDate": "2025-07-07"},
		},
	}
	events := Collect(src)
	if len(events) != 1 || events[0].Kind != models.KindRejected {
		t.Fatalf("events = %+v", events)
	}
	if events[0].ID != "rejected-7" {
		t.Errorf("id = %q, want rejected-7", events[0].ID)
	}
}

func TestDedup(t *testing.T) {
	events := []models.Event{
		{ID: "1", Kind: models.KindApplied, Date: "2025-01-01", Title: "A", Location: "Berlin"},
		{ID: "2", Kind: models.KindApplied, Date: "2025-01-01", Title: "A", Location: "Remote"},
		{ID: "3", Kind: models.KindApplied, Date: "2025-01-01", Title: "A", Subtitle: "Dev"},
		{ID: "4", Kind: models.KindInterview, Date: "2025-01-01", Title: "A", Time: "10:00"},
		{ID: "5", Kind: models.KindInterview, Date: "2025-01-01", Title: "A", Time: "11:00"},
		{ID: "6", Kind: models.KindInterview, Date: "2025-01-01", Title: "A", Time: "10:00"},
	}
	once := Dedup(events)
	if len(once) != 4 {
		t.Fatalf("len = %d, want 4: %+v", len(once), once)
	}
	if once[0].ID != "1" {
		t.Errorf("first-seen should win, got %q", once[0].ID)
	}
	twice := Dedup(once)
	if len(twice) != len(once) {
		t.Fatalf("dedup not idempotent: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("event %d changed on second dedup", i)
		}
	}
	seen := map[dedupKey]bool{}
	for _, ev := range twice {
		if seen[keyOf(ev)] {
			t.Errorf("duplicate key survived: %+v", ev)
		}
		seen[keyOf(ev)] = true
	}
}

func TestDedup_SeparatorInTitle(t *testing.T) {
	events := []models.Event{
		{Kind: models.KindApplied, Date: "2025-01-01", Title: "A|B", Subtitle: ""},
		{Kind: models.KindApplied, Date: "2025-01-01", Title: "A", Subtitle: "B"},
	}
	if got := Dedup(events); len(got) != 2 {
		t.Errorf("structural key collapsed distinct events: %+v", got)
	}
}

func TestCollect_UnpaddedInterviewTimestamp(t *testing.T) {
	src := Sources{
		models.CollectionInterviews: {
			{"id": "u", "company": "Acme", "date": "2025-3-1T9:00"},
			{"id": "p", "company": "Globex", "date": "2025-03-01T08:30"},
		},
	}
	events := Build(src)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	ev := events[0]
	if ev.Date != "2025-03-01" || ev.Time != "09:00" || ev.DateTime != "" {
		t.Errorf("unpadded interview = %+v", ev)
	}
	if EffectiveTimestamp(ev, EndOfDay) != "2025-03-01T09:00" {
		t.Errorf("effective timestamp = %q", EffectiveTimestamp(ev, EndOfDay))
	}
	if events[1].DateTime != "2025-03-01T08:30" {
		t.Errorf("padded dateTime = %q", events[1].DateTime)
	}

	now := time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)
	up := UpcomingInterviews(events, now, time.UTC, 5)
	if len(up) != 2 || up[0].ID != "interview-p" || up[1].ID != "interview-u" {
		t.Errorf("upcoming = %+v", up)
	}
	parts, ok := Countdown(ev, now, time.UTC)
	if !ok || parts.Days != 4 || parts.Hours != 9 {
		t.Errorf("countdown = %+v, %v", parts, ok)
	}
}
