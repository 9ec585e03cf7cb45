//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/jobtrail/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the events table.
	return nil
}

func ftsRebuild(_ *sql.Tx) error { return nil }

// Search performs a LIKE-based search over title, subtitle and location
// (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE title LIKE ? ESCAPE '\' OR subtitle LIKE ? ESCAPE '\' OR location LIKE ? ESCAPE '\'
		ORDER BY date DESC, position
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}
