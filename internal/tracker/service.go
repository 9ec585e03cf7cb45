// Package tracker coordinates record storage, the event index and the
// activity engine.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/jobtrail/internal/activity"
	"github.com/starford/jobtrail/internal/apperr"
	"github.com/starford/jobtrail/internal/index"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/storage"
)

// MonthRef identifies a calendar month.
type MonthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// CalendarMonth is the view model for one month of the calendar.
type CalendarMonth struct {
	Year  int             `json:"year"`
	Month time.Month      `json:"month"`
	Prev  MonthRef        `json:"prev"`
	Next  MonthRef        `json:"next"`
	Cells []activity.Cell `json:"cells"`
}

// Upcoming holds the nearest interview and the ones after it.
type Upcoming struct {
	Next  *models.Event  `json:"next"`
	Later []models.Event `json:"later"`
}

// CountdownView is an event with its countdown relative to a reference
// instant. Countdown is nil when the event time cannot be resolved.
type CountdownView struct {
	Event     models.Event           `json:"event"`
	Countdown *models.CountdownParts `json:"countdown"`
}

// Service coordinates storage, index and activity engine operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	logger *slog.Logger

	loc           *time.Location
	upcomingLimit int

	// mu serialises read-modify-write cycles on collection files.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the timezone used for timestamps without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithUpcomingLimit caps the number of upcoming interviews returned.
func WithUpcomingLimit(n int) Option {
	return func(s *Service) { s.upcomingLimit = n }
}

// WithLogger sets the logger used during index syncs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new tracker service. db may be nil, in which case
// events are derived straight from storage on every call.
func NewService(store storage.Provider, db *index.DB, opts ...Option) *Service {
	s := &Service{
		store:         store,
		db:            db,
		logger:        slog.Default(),
		loc:           time.Local,
		upcomingLimit: activity.DefaultUpcomingLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the configured calendar timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Events returns the canonical, deduplicated event set.
func (s *Service) Events(_ context.Context) ([]models.Event, error) {
	if s.db == nil {
		src, _, err := index.LoadSources(s.store, s.logger)
		if err != nil {
			return nil, err
		}
		return activity.Build(src), nil
	}
	if _, err := index.Sync(s.db, s.store, s.logger); err != nil {
		return nil, err
	}
	return s.db.Events()
}

// Reindex forces the event mirror to catch up with storage.
func (s *Service) Reindex(_ context.Context) (bool, error) {
	if s.db == nil {
		return false, nil
	}
	return index.Sync(s.db, s.store, s.logger)
}

// EventsBetween returns events dated within [from, to].
func (s *Service) EventsBetween(ctx context.Context, from, to string) ([]models.Event, error) {
	f, ok := activity.NormalizeDate(from)
	if !ok {
		return nil, fmt.Errorf("tracker: invalid from date %q: %w", from, apperr.ErrInvalidRecord)
	}
	t, ok := activity.NormalizeDate(to)
	if !ok {
		return nil, fmt.Errorf("tracker: invalid to date %q: %w", to, apperr.ErrInvalidRecord)
	}
	if s.db != nil {
		if _, err := index.Sync(s.db, s.store, s.logger); err != nil {
			return nil, err
		}
		return s.db.EventsBetween(f, t)
	}
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Event{}
	for _, ev := range events {
		if ev.Date >= f && ev.Date <= t {
			out = append(out, ev)
		}
	}
	return out, nil
}

// EventsByDate groups the canonical events by ISO date.
func (s *Service) EventsByDate(ctx context.Context) (map[string][]models.Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return activity.EventsByDate(events), nil
}

// Search matches events by title, subtitle or location.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Event, error) {
	if s.db != nil {
		if _, err := index.Sync(s.db, s.store, s.logger); err != nil {
			return nil, err
		}
		return s.db.Search(query, limit)
	}
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(query)
	out := []models.Event{}
	for _, ev := range events {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(ev.Title), q) ||
			strings.Contains(strings.ToLower(ev.Subtitle), q) ||
			strings.Contains(strings.ToLower(ev.Location), q) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Calendar builds the 42-cell view of a month with its events.
func (s *Service) Calendar(ctx context.Context, year int, month time.Month) (*CalendarMonth, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	py, pm := activity.ShiftMonth(year, month, -1)
	ny, nm := activity.ShiftMonth(year, month, 1)
	return &CalendarMonth{
		Year:  year,
		Month: month,
		Prev:  MonthRef{Year: py, Month: pm},
		Next:  MonthRef{Year: ny, Month: nm},
		Cells: activity.MonthCells(year, month, events),
	}, nil
}

// Report returns month statistics compared with the previous month.
func (s *Service) Report(ctx context.Context, year int, month time.Month) (*activity.Report, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	r := activity.MonthReport(events, year, month)
	return &r, nil
}

// AllTime returns statistics over every event.
func (s *Service) AllTime(ctx context.Context) (models.MonthStats, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return models.MonthStats{}, err
	}
	return activity.AllTimeStats(events), nil
}

// Upcoming returns interviews that have not passed at now.
func (s *Service) Upcoming(ctx context.Context, now time.Time) (*Upcoming, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	next, later := activity.SplitNext(activity.UpcomingInterviews(events, now, s.loc, s.upcomingLimit))
	return &Upcoming{Next: next, Later: later}, nil
}

// Countdown resolves the event with the given id and its countdown at now.
func (s *Service) Countdown(ctx context.Context, id string, now time.Time) (*CountdownView, error) {
	ev, err := s.event(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &CountdownView{Event: *ev}
	if parts, ok := activity.Countdown(*ev, now, s.loc); ok {
		view.Countdown = &parts
	}
	return view, nil
}

// event returns the first canonical event with the given id.
func (s *Service) event(ctx context.Context, id string) (*models.Event, error) {
	if s.db != nil {
		if _, err := index.Sync(s.db, s.store, s.logger); err != nil {
			return nil, err
		}
		return s.db.Event(id)
	}
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == id {
			return &events[i], nil
		}
	}
	return nil, fmt.Errorf("tracker: event %s: %w", id, apperr.ErrNotFound)
}

func validateMonth(year int, month time.Month) error {
	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return fmt.Errorf("tracker: month %d-%d out of range: %w", year, month, apperr.ErrInvalidRecord)
	}
	return nil
}
