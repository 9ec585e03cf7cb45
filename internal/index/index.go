package index

import "github.com/starford/jobtrail/internal/models"

// EventIndex defines the read/write surface of the event mirror.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type EventIndex interface {
	ReplaceEvents(events []models.Event, checksums map[models.Collection]string) error
	Events() ([]models.Event, error)
	EventsBetween(from, to string) ([]models.Event, error)
	Event(id string) (*models.Event, error)
	CountByKind(datePrefix string) (map[models.Kind]int, error)
	Search(query string, limit int) ([]models.Event, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies EventIndex at compile time.
var _ EventIndex = (*DB)(nil)
