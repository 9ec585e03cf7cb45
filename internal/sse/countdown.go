package sse

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTickInterval is used when a CountdownStream is built without one.
const DefaultTickInterval = time.Second

// SnapshotFunc computes the payload of one countdown tick at now.
type SnapshotFunc func(ctx context.Context, now time.Time) (any, error)

// CountdownStream serves a per-connection countdown feed. Unlike Broker it
// keeps no shared state: each connection owns a ticker that lives exactly as
// long as the request.
type CountdownStream struct {
	interval time.Duration
	snapshot SnapshotFunc
	now      func() time.Time
	logger   *slog.Logger
}

// NewCountdownStream creates a stream that calls snapshot on every tick.
func NewCountdownStream(interval time.Duration, snapshot SnapshotFunc, logger *slog.Logger) *CountdownStream {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CountdownStream{
		interval: interval,
		snapshot: snapshot,
		now:      time.Now,
		logger:   logger,
	}
}

// ServeHTTP is the countdown endpoint handler (GET /api/countdown-stream).
// The first tick is sent immediately.
func (s *CountdownStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	writeStreamHeaders(w)
	flusher.Flush()

	ctx := r.Context()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if !s.tick(ctx, w, flusher, s.now()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.tick(ctx, w, flusher, s.now()) {
				return
			}
		}
	}
}

// tick writes one countdown.tick event. It reports false when the client is
// gone.
func (s *CountdownStream) tick(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, now time.Time) bool {
	data, err := s.snapshot(ctx, now)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Warn("countdown: snapshot failed", slog.String("error", err.Error()))
		return true
	}
	raw, err := encode(Event{Type: TypeCountdownTick, Data: data}, 0)
	if err != nil {
		s.logger.Warn("countdown: encode failed", slog.String("error", err.Error()))
		return true
	}
	if _, err := w.Write(raw); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
