package remote

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"github.com/starford/jobtrail/internal/checksum"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/parser"
	"github.com/starford/jobtrail/internal/storage"
)

// Result lists what one sync pass changed.
type Result struct {
	Pushed []models.Collection `json:"pushed"`
	Pulled []models.Collection `json:"pulled"`
}

// Syncer mirrors the local data directory to a Backend.
type Syncer struct {
	store   storage.Provider
	backend Backend
	logger  *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(store storage.Provider, backend Backend, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, backend: backend, logger: logger}
}

// Run performs one pass: local collections whose checksum differs from the
// remote one are pushed, remote collections missing locally are pulled.
// Local files always win when both sides exist.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	metas, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("remote: list: %w", err)
	}
	local := make(map[models.Collection]models.CollectionMetadata, len(metas))
	for _, m := range metas {
		local[m.Name] = m
	}

	res := &Result{Pushed: []models.Collection{}, Pulled: []models.Collection{}}
	for _, c := range models.AllCollections {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if m, ok := local[c]; ok {
			pushed, err := s.push(ctx, m)
			if err != nil {
				return res, err
			}
			if pushed {
				res.Pushed = append(res.Pushed, c)
			}
			continue
		}
		pulled, err := s.pull(ctx, c)
		if err != nil {
			return res, err
		}
		if pulled {
			res.Pulled = append(res.Pulled, c)
		}
	}

	s.logger.Info("remote sync done",
		slog.Int("pushed", len(res.Pushed)),
		slog.Int("pulled", len(res.Pulled)))
	return res, nil
}

func (s *Syncer) push(ctx context.Context, m models.CollectionMetadata) (bool, error) {
	remoteSum, err := s.backend.Checksum(ctx, m.Name)
	if err != nil {
		return false, err
	}
	if remoteSum == m.Checksum {
		return false, nil
	}
	f, err := s.store.Read(m.Name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remote: read %s: %w", m.Name, err)
	}
	snap := Snapshot{
		Collection: m.Name,
		Path:       filepath.Base(f.Path),
		Data:       f.Data,
		Checksum:   checksum.Sum(f.Data),
	}
	if err := s.backend.Push(ctx, snap); err != nil {
		return false, err
	}
	s.logger.Debug("pushed collection", slog.String("collection", string(m.Name)))
	return true, nil
}

func (s *Syncer) pull(ctx context.Context, c models.Collection) (bool, error) {
	snap, err := s.backend.Pull(ctx, c)
	if err != nil || snap == nil {
		return false, err
	}
	if !checksum.Equal(snap.Data, snap.Checksum) {
		s.logger.Warn("skipping remote collection with bad checksum",
			slog.String("collection", string(c)))
		return false, nil
	}

	// New local collections are always <name>.json.
	data := snap.Data
	if parser.IsYAML(snap.Path) {
		parsed, err := parser.Parse(snap.Path, data)
		if err != nil {
			return false, fmt.Errorf("remote: decode %s: %w", snap.Path, err)
		}
		if data, err = parser.Encode(string(c)+".json", parsed.Records); err != nil {
			return false, fmt.Errorf("remote: encode %s: %w", c, err)
		}
	}
	if err := s.store.Write(c, data); err != nil {
		return false, fmt.Errorf("remote: write %s: %w", c, err)
	}
	s.logger.Debug("pulled collection", slog.String("collection", string(c)))
	return true, nil
}

// Schedule runs s on the cron spec (standard 5-field syntax or a
// descriptor such as "@every 5m") until ctx is cancelled. onSync, if
// non-nil, receives the result of every successful pass.
func Schedule(ctx context.Context, spec string, s *Syncer, onSync func(*Result)) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		res, err := s.Run(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error("remote sync failed", slog.String("error", err.Error()))
			}
			return
		}
		if onSync != nil {
			onSync(res)
		}
	}); err != nil {
		return fmt.Errorf("remote: schedule %q: %w", spec, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Changed reports whether the pass pushed or pulled anything.
func (r *Result) Changed() bool {
	return len(r.Pushed) > 0 || len(r.Pulled) > 0
}

// ValidateSchedule reports whether spec is a valid cron schedule.
func ValidateSchedule(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}
