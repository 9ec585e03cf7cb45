package index

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/starford/jobtrail/internal/activity"
	"github.com/starford/jobtrail/internal/checksum"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/parser"
	"github.com/starford/jobtrail/internal/storage"
)

// LoadSources reads and parses every collection present in store.
// A collection that cannot be read or decoded contributes no records; its
// checksum is still reported so an unchanged broken file is not re-read on
// every sync.
func LoadSources(store storage.Provider, logger *slog.Logger) (activity.Sources, map[models.Collection]string, error) {
	metas, err := store.List()
	if err != nil {
		return nil, nil, err
	}
	src := make(activity.Sources, len(metas))
	sums := make(map[models.Collection]string, len(metas))
	for _, m := range metas {
		sums[m.Name] = m.Checksum
		f, err := store.Read(m.Name)
		if errors.Is(err, fs.ErrNotExist) {
			delete(sums, m.Name)
			continue
		}
		if err != nil {
			logger.Warn("sync: read failed", slog.String("collection", string(m.Name)), slog.String("error", err.Error()))
			continue
		}
		sums[m.Name] = checksum.Sum(f.Data)
		res, err := parser.Parse(f.Path, f.Data)
		if err != nil {
			logger.Warn("sync: parse failed", slog.String("collection", string(m.Name)), slog.String("error", err.Error()))
			continue
		}
		if res.Skipped > 0 {
			logger.Debug("sync: skipped non-object entries",
				slog.String("collection", string(m.Name)), slog.Int("skipped", res.Skipped))
		}
		src[m.Name] = res.Records
	}
	return src, sums, nil
}

// Sync brings the event mirror up to date. The event set is rebuilt from
// scratch whenever any collection checksum differs from the one recorded at
// the last rebuild, or a collection appeared or disappeared. It reports
// whether a rebuild happened.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (bool, error) {
	metas, err := store.List()
	if err != nil {
		return false, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return false, err
	}
	if !stale(metas, checksums) {
		return false, nil
	}

	src, sums, err := LoadSources(store, logger)
	if err != nil {
		return false, err
	}
	events := activity.Build(src)
	if err := db.ReplaceEvents(events, sums); err != nil {
		return false, err
	}
	logger.Debug("sync: rebuilt events",
		slog.Int("collections", len(sums)), slog.Int("events", len(events)))
	return true, nil
}

func stale(metas []models.CollectionMetadata, checksums map[string]string) bool {
	if len(metas) != len(checksums) {
		return true
	}
	for _, m := range metas {
		cs, ok := checksums[string(m.Name)]
		if !ok || cs != m.Checksum {
			return true
		}
	}
	return false
}
