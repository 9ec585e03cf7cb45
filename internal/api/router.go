package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jobtrail/internal/tracker"
)

// RouterOptions wires optional collaborators into the router.
type RouterOptions struct {
	AuthEnabled bool
	Token       string
	// Stream, if non-nil, is mounted at GET /stream inside the auth group.
	Stream http.Handler
	// CountdownStream, if non-nil, is mounted at GET /countdown-stream.
	CountdownStream http.Handler
	// Notifier receives collection changes made through the API.
	Notifier Notifier
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *tracker.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc, opts.Notifier)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	// Events.
	r.Get("/events", h.ListEvents)
	r.Get("/events/by-date", h.EventsByDate)
	r.Get("/events/search", h.Search)

	// Calendar.
	r.Get("/calendar/{year}/{month}", h.Calendar)
	r.Get("/calendar.ics", h.CalendarICS)

	// Statistics.
	r.Get("/stats/all-time", h.AllTimeStats)
	r.Get("/stats/{year}/{month}", h.MonthStats)

	// Interviews.
	r.Get("/upcoming", h.Upcoming)
	r.Get("/countdown/{id}", h.Countdown)

	// Raw records.
	r.Get("/collections/{name}", h.GetCollection)
	r.Post("/collections/{name}", h.AddRecord)
	r.Delete("/collections/{name}", h.DeleteCollection)
	r.Put("/collections/{name}/{id}", h.UpdateRecord)
	r.Delete("/collections/{name}/{id}", h.DeleteRecord)

	// Live updates (protected by same auth middleware).
	if opts.Stream != nil {
		r.Get("/stream", opts.Stream.ServeHTTP)
	}
	if opts.CountdownStream != nil {
		r.Get("/countdown-stream", opts.CountdownStream.ServeHTTP)
	}

	return r
}
