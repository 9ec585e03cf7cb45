package api

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jobtrail/internal/icsexport"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/tracker"
)

// Notifier is told about collection changes made through the API.
type Notifier interface {
	PublishChange(c models.Collection)
}

// Handler holds API route handlers.
type Handler struct {
	svc       *tracker.Service
	notifier  Notifier
	now       func() time.Time
	encodeICS func(io.Writer, []models.Event, *time.Location) error
}

// NewHandler creates a new Handler. notifier may be nil.
func NewHandler(svc *tracker.Service, notifier Notifier) *Handler {
	return &Handler{svc: svc, notifier: notifier, now: time.Now, encodeICS: icsexport.Encode}
}

// yearMonth parses the {year}/{month} URL params.
func yearMonth(r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// ListEvents handles GET /api/events.
//
//	@Summary		List canonical events, optionally within a date range
//	@Tags			events
//	@Produce		json
//	@Param			from	query		string	false	"Inclusive start date (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Inclusive end date (YYYY-MM-DD)"
//	@Param			kind	query		string	false	"Only events of this kind"
//	@Success		200		{object}	EventListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	var (
		events []models.Event
		err    error
	)
	switch {
	case from == "" && to == "":
		events, err = h.svc.Events(r.Context())
	case from == "" || to == "":
		writeJSON(w, http.StatusBadRequest, errorBody("both from and to are required"))
		return
	default:
		events, err = h.svc.EventsBetween(r.Context(), from, to)
	}
	if err != nil {
		writeError(w, "list events", err)
		return
	}
	if k := q.Get("kind"); k != "" {
		kind := models.Kind(k)
		if !kind.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown kind: "+k))
			return
		}
		events = filterKind(events, kind)
	}
	writeJSON(w, http.StatusOK, EventListResponse{Events: events})
}

func filterKind(events []models.Event, kind models.Kind) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// EventsByDate handles GET /api/events/by-date.
//
//	@Summary		Events grouped by ISO date, each day sorted by kind
//	@Tags			events
//	@Produce		json
//	@Success		200	{object}	EventsByDateResponse
//	@Security		BearerAuth
//	@Router			/events/by-date [get]
func (h *Handler) EventsByDate(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.EventsByDate(r.Context())
	if err != nil {
		writeError(w, "events by date", err)
		return
	}
	writeJSON(w, http.StatusOK, EventsByDateResponse{Days: days})
}

// Search handles GET /api/events/search.
//
//	@Summary		Search events by company, role or location
//	@Tags			events
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Calendar handles GET /api/calendar/{year}/{month}.
//
//	@Summary		42-cell Monday-first month grid with events
//	@Tags			calendar
//	@Produce		json
//	@Param			year	path		int	true	"Year"
//	@Param			month	path		int	true	"Month (1-12)"
//	@Success		200		{object}	CalendarResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/{year}/{month} [get]
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid year or month"))
		return
	}
	cal, err := h.svc.Calendar(r.Context(), year, month)
	if err != nil {
		writeError(w, "calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// CalendarICS handles GET /api/calendar.ics.
//
//	@Summary		Export all events as iCalendar
//	@Tags			calendar
//	@Produce		text/calendar
//	@Success		200
//	@Security		BearerAuth
//	@Router			/calendar.ics [get]
func (h *Handler) CalendarICS(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Events(r.Context())
	if err != nil {
		writeError(w, "calendar export", err)
		return
	}
	// Encode fully before writing so a failure can still become a 500.
	var buf bytes.Buffer
	if err := h.encodeICS(&buf, events, h.svc.Location()); err != nil {
		writeError(w, "calendar export", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="jobtrail.ics"`)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("calendar export write failed", slog.String("error", err.Error()))
	}
}

// MonthStats handles GET /api/stats/{year}/{month}.
//
//	@Summary		Month statistics compared with the previous month
//	@Tags			stats
//	@Produce		json
//	@Param			year	path		int	true	"Year"
//	@Param			month	path		int	true	"Month (1-12)"
//	@Success		200		{object}	ReportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats/{year}/{month} [get]
func (h *Handler) MonthStats(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid year or month"))
		return
	}
	report, err := h.svc.Report(r.Context(), year, month)
	if err != nil {
		writeError(w, "month stats", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// AllTimeStats handles GET /api/stats/all-time.
func (h *Handler) AllTimeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.AllTime(r.Context())
	if err != nil {
		writeError(w, "all-time stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Upcoming handles GET /api/upcoming.
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	up, err := h.svc.Upcoming(r.Context(), h.now())
	if err != nil {
		writeError(w, "upcoming", err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

// Countdown handles GET /api/countdown/{id}.
func (h *Handler) Countdown(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Countdown(r.Context(), chi.URLParam(r, "id"), h.now())
	if err != nil {
		writeError(w, "countdown", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
