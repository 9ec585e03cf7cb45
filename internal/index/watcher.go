package index

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/storage"
)

// DebounceInterval is how long the watcher waits after the last file event
// before resyncing.
const DebounceInterval = 200 * time.Millisecond

// EventCallback is called after a watcher-driven rebuild, once per
// collection whose file was touched.
type EventCallback func(collection models.Collection)

// Watch starts an fsnotify watcher on the data directory and resyncs the
// index until ctx is cancelled. Bursts of events (an atomic write produces
// several) are coalesced into one Sync. Files that do not name a known
// collection are ignored.
func Watch(ctx context.Context, db *DB, store storage.Provider, dataRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dataRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", dataRoot))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending = make(map[models.Collection]struct{})
	)

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(DebounceInterval)
			timerCh = timer.C
		} else {
			timer.Reset(DebounceInterval)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			changed, syncErr := Sync(db, store, logger)
			if syncErr != nil {
				logger.Warn("watcher: sync failed", slog.String("error", syncErr.Error()))
				continue
			}
			touched := make([]models.Collection, 0, len(pending))
			for c := range pending {
				touched = append(touched, c)
			}
			clear(pending)
			if !changed {
				continue
			}
			sort.Slice(touched, func(i, j int) bool { return touched[i] < touched[j] })
			logger.Debug("watcher: reindexed", slog.Int("collections", len(touched)))
			if cb != nil {
				for _, c := range touched {
					cb(c)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			c, known := storage.CollectionForFile(ev.Name)
			if !known {
				continue
			}
			pending[c] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
