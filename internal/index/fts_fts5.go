//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/jobtrail/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
			title,
			subtitle,
			location,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

// ftsRebuild mirrors the events table into events_fts, keyed by position.
func ftsRebuild(tx *sql.Tx) error {
	if _, err := tx.Exec(`DELETE FROM events_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	_, err := tx.Exec(`
		INSERT INTO events_fts (rowid, title, subtitle, location)
		SELECT position, title, subtitle, location FROM events
	`)
	if err != nil {
		return fmt.Errorf("index: rebuild fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search over title, subtitle and location.
func (db *DB) Search(query string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT e.id, e.date, e.kind, e.title, e.subtitle, e.time, e.date_time, e.location, e.employment_type
		FROM events_fts f
		JOIN events e ON e.position = f.rowid
		WHERE events_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}
