package index

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/jobtrail/internal/apperr"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "jobtrail-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: "interview-i1", Date: "2024-03-12", Kind: models.KindInterview, Title: "Acme", Subtitle: "Backend", Time: "14:30", DateTime: "2024-03-12T14:30:00"},
		{ID: "applied-a1", Date: "2024-03-01", Kind: models.KindApplied, Title: "Acme", Subtitle: "Backend"},
		{ID: "applied-a2", Date: "2024-02-20", Kind: models.KindApplied, Title: "Globex", Location: "Remote", EmploymentType: "contract"},
		{ID: "offer-o1", Date: "2024-03-28", Kind: models.KindOffer, Title: "Acme"},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("events table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM collections`).Scan(&count); err != nil {
		t.Fatalf("collections table missing: %v", err)
	}
}

func TestReplaceEvents_PreservesOrderAndFields(t *testing.T) {
	db := testDB(t)
	in := sampleEvents()
	if err := db.ReplaceEvents(in, map[models.Collection]string{models.CollectionApplications: "abc"}); err != nil {
		t.Fatalf("ReplaceEvents: %v", err)
	}
	got, err := db.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("len = %d, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], in[i])
		}
	}
	cs, _ := db.AllChecksums()
	if cs["applications"] != "abc" {
		t.Errorf("checksums = %v", cs)
	}
}

func TestReplaceEvents_Wholesale(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceEvents(sampleEvents(), map[models.Collection]string{models.CollectionOffers: "1"})
	_ = db.ReplaceEvents(sampleEvents()[:1], map[models.Collection]string{models.CollectionInterviews: "2"})

	got, _ := db.Events()
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
	cs, _ := db.AllChecksums()
	if _, ok := cs["offers"]; ok || cs["interviews"] != "2" {
		t.Errorf("checksums = %v", cs)
	}
}

func TestEventsBetween(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceEvents(sampleEvents(), nil)

	got, err := db.EventsBetween("2024-03-01", "2024-03-12")
	if err != nil {
		t.Fatalf("EventsBetween: %v", err)
	}
	if len(got) != 2 || got[0].ID != "applied-a1" || got[1].ID != "interview-i1" {
		t.Errorf("got %+v", got)
	}
}

func TestEvent_NotFound(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceEvents(sampleEvents(), nil)

	ev, err := db.Event("offer-o1")
	if err != nil || ev.Title != "Acme" {
		t.Fatalf("Event = %+v, %v", ev, err)
	}
	if _, err := db.Event("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCountByKind(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceEvents(sampleEvents(), nil)

	counts, err := db.CountByKind("2024-03")
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	want := map[models.Kind]int{
		models.KindApplied: 1, models.KindInterview: 1, models.KindOffer: 1,
		models.KindRejected: 0, models.KindWithdrawn: 0,
	}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("%s = %d, want %d", k, counts[k], n)
		}
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceEvents(sampleEvents(), nil)

	results, err := db.Search("Globex", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "applied-a2" {
		t.Errorf("search results = %+v, want 1 hit for applied-a2", results)
	}
}

func TestSync_RebuildsOnlyWhenChanged(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(dir, "applications.json"),
		[]byte(`[{"id":"a1","company":"Acme","appliedOn":"2024-03-01"}]`), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "rejections.yaml"),
		[]byte("- id: r1\n  company: Acme\n  appliedDate: 2024-03-01\n  decisionDate: 2024-03-20\n"), 0o644)

	changed, err := Sync(db, store, logger)
	if err != nil || !changed {
		t.Fatalf("first Sync = %v, %v", changed, err)
	}
	events, _ := db.Events()
	// applied is deduplicated across the two collections.
	if len(events) != 2 {
		t.Fatalf("events = %+v, want 2", events)
	}

	changed, err = Sync(db, store, logger)
	if err != nil || changed {
		t.Errorf("second Sync = %v, %v, want no change", changed, err)
	}

	_ = os.Remove(filepath.Join(dir, "rejections.yaml"))
	changed, _ = Sync(db, store, logger)
	if !changed {
		t.Error("removing a collection should trigger a rebuild")
	}
	events, _ = db.Events()
	if len(events) != 1 || events[0].Kind != models.KindApplied {
		t.Errorf("events after removal = %+v", events)
	}
}

func TestSync_MalformedCollectionIsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, _ := storage.NewFS(dir)
	db := testDB(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(dir, "offers.json"), []byte(`[{"id":`), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "interviews.json"),
		[]byte(`[{"id":"i1","company":"Acme","date":"2024-04-02T10:00"}]`), 0o644)

	if _, err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	events, _ := db.Events()
	if len(events) != 1 || events[0].Time != "10:00" {
		t.Errorf("events = %+v", events)
	}
	changed, _ := Sync(db, store, logger)
	if changed {
		t.Error("unchanged malformed file should not trigger a rebuild")
	}
}

// unreadable fails Read for one collection while listing it normally.
type unreadable struct {
	storage.Provider
	broken models.Collection
}

func (u unreadable) Read(c models.Collection) (*storage.File, error) {
	if c == u.broken {
		return nil, errors.New("permission denied")
	}
	return u.Provider.Read(c)
}

func TestSync_UnreadableCollectionNotRereadEveryTime(t *testing.T) {
	dir := t.TempDir()
	fsStore, _ := storage.NewFS(dir)
	store := unreadable{Provider: fsStore, broken: models.CollectionOffers}
	db := testDB(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(dir, "offers.json"), []byte(`[{"id":"o1","company":"Acme"}]`), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "applications.json"),
		[]byte(`[{"id":"a1","company":"Acme","appliedOn":"2024-03-01"}]`), 0o644)

	changed, err := Sync(db, store, logger)
	if err != nil || !changed {
		t.Fatalf("first Sync = %v, %v", changed, err)
	}
	events, _ := db.Events()
	if len(events) != 1 {
		t.Errorf("events = %+v, want only the applied event", events)
	}
	changed, err = Sync(db, store, logger)
	if err != nil || changed {
		t.Errorf("second Sync = %v, %v, want no change", changed, err)
	}
}
