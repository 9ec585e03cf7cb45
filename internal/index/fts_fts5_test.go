//go:build sqlite_fts5

package index

import (
	"testing"

	"github.com/starford/jobtrail/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM events_fts`).Scan(&count); err != nil {
		t.Fatalf("events_fts table missing: %v", err)
	}
}

func TestFTS5_SearchTracksReplace(t *testing.T) {
	db := testDB(t)
	first := []models.Event{{ID: "applied-1", Date: "2024-03-01", Kind: models.KindApplied, Title: "Initech", Subtitle: "Platform engineer"}}
	if err := db.ReplaceEvents(first, nil); err != nil {
		t.Fatalf("ReplaceEvents: %v", err)
	}
	results, err := db.Search("platform", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "applied-1" {
		t.Fatalf("results = %+v", results)
	}

	second := []models.Event{{ID: "applied-2", Date: "2024-03-02", Kind: models.KindApplied, Title: "Globex"}}
	_ = db.ReplaceEvents(second, nil)
	results, _ = db.Search("platform", 10)
	if len(results) != 0 {
		t.Error("replaced events should be gone from fts")
	}
}
