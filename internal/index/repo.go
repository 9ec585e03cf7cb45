package index

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/starford/jobtrail/internal/apperr"
	"github.com/starford/jobtrail/internal/models"
)

const eventColumns = `id, date, kind, title, subtitle, time, date_time, location, employment_type`

// ReplaceEvents swaps the whole event set and the collection checksums it
// was derived from within a single transaction. Events are never patched
// in place because they are recomputed from the records.
func (db *DB) ReplaceEvents(events []models.Event, checksums map[models.Collection]string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("index: clear events: %w", err)
	}
	if len(events) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO events (position, ` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare event insert: %w", err)
		}
		defer stmt.Close()
		for i, ev := range events {
			if _, err := stmt.Exec(i, ev.ID, ev.Date, string(ev.Kind), ev.Title, ev.Subtitle,
				ev.Time, ev.DateTime, ev.Location, ev.EmploymentType); err != nil {
				return fmt.Errorf("index: insert event %s: %w", ev.ID, err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM collections`); err != nil {
		return fmt.Errorf("index: clear collections: %w", err)
	}
	now := time.Now().UTC()
	for name, cs := range checksums {
		_, err := tx.Exec(`
			INSERT INTO collections (name, checksum, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				checksum   = excluded.checksum,
				updated_at = excluded.updated_at
		`, string(name), cs, now)
		if err != nil {
			return fmt.Errorf("index: upsert collection: %w", err)
		}
	}

	if err := ftsRebuild(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Events returns the full event set in canonical order.
func (db *DB) Events() ([]models.Event, error) {
	return db.queryEvents(`SELECT `+eventColumns+` FROM events ORDER BY position`)
}

// EventsBetween returns events with from <= date <= to (ISO dates,
// inclusive), ordered by date then canonical order.
func (db *DB) EventsBetween(from, to string) ([]models.Event, error) {
	return db.queryEvents(`SELECT `+eventColumns+` FROM events
		WHERE date >= ? AND date <= ?
		ORDER BY date, position`, from, to)
}

// Event returns the first event with the given id.
func (db *DB) Event(id string) (*models.Event, error) {
	out, err := db.queryEvents(`SELECT `+eventColumns+` FROM events WHERE id = ? ORDER BY position LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("index: event %s: %w", id, apperr.ErrNotFound)
	}
	return &out[0], nil
}

// CountByKind counts events whose date starts with datePrefix. Every kind
// is present in the result.
func (db *DB) CountByKind(datePrefix string) (map[models.Kind]int, error) {
	out := make(map[models.Kind]int, len(models.AllKinds))
	for _, k := range models.AllKinds {
		out[k] = 0
	}
	rows, err := db.conn.Query(`SELECT kind, count(*) FROM events WHERE date LIKE ? ESCAPE '\' GROUP BY kind`,
		escapeLike(datePrefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("index: count by kind: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		out[models.Kind(kind)] = count
	}
	return out, rows.Err()
}

// AllChecksums returns the checksum recorded for every collection at the
// last rebuild.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM collections`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

func (db *DB) queryEvents(query string, args ...any) ([]models.Event, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	out := []models.Event{}
	for rows.Next() {
		var (
			ev   models.Event
			kind string
		)
		if err := rows.Scan(&ev.ID, &ev.Date, &kind, &ev.Title, &ev.Subtitle,
			&ev.Time, &ev.DateTime, &ev.Location, &ev.EmploymentType); err != nil {
			return nil, err
		}
		ev.Kind = models.Kind(kind)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
