package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/storage"
)

// watcherTestEnv sets up a data dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	return dataDir, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewCollectionIndexed(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var touched []models.Collection

	go Watch(ctx, db, store, dataDir, logger, func(c models.Collection) {
		mu.Lock()
		touched = append(touched, c)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dataDir, "interviews.json"),
		[]byte(`[{"id":"i1","company":"Acme","date":"2024-05-01"}]`), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		events, _ := db.Events()
		return len(events) == 1
	}, "new collection not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(touched) > 0 && touched[0] == models.CollectionInterviews
	}, "expected callback for interviews")
}

func TestWatcher_IgnoresUnknownFiles(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := make(chan models.Collection, 1)
	go Watch(ctx, db, store, dataDir, logger, func(c models.Collection) { called <- c })
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dataDir, "notes.json"), []byte(`[]`), 0o644)

	select {
	case c := <-called:
		t.Errorf("unexpected callback for %s", c)
	case <-time.After(3 * DebounceInterval):
	}
}

func TestWatcher_DeleteRemovesEvents(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(dataDir, "offers.json"),
		[]byte(`[{"id":"o1","company":"Acme","offerDate":"2024-06-01"}]`), 0o644)
	if _, err := Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}
	if events, _ := db.Events(); len(events) != 1 {
		t.Fatal("precondition: offer should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dataDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dataDir, "offers.json"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		events, _ := db.Events()
		return len(events) == 0
	}, "deleted collection still in index")
}

func TestWatcher_AtomicWriteReindexes(t *testing.T) {
	dataDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	_ = store.Write(models.CollectionApplications, []byte(`[{"id":"a1","company":"Acme","appliedOn":"2024-01-01"}]`))
	_, _ = Sync(db, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dataDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = store.Write(models.CollectionApplications, []byte(`[{"id":"a1","company":"Initech","appliedOn":"2024-01-01"}]`))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		events, _ := db.Events()
		return len(events) == 1 && events[0].Title == "Initech"
	}, "atomic rewrite not picked up by watcher")
}
