package api

import (
	"github.com/starford/jobtrail/internal/activity"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/tracker"
)

// EventListResponse wraps a list of events.
type EventListResponse struct {
	Events []models.Event `json:"events" validate:"required"`
}

// EventsByDateResponse maps ISO dates to the events on that day.
type EventsByDateResponse struct {
	Days map[string][]models.Event `json:"days" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.Event `json:"results" validate:"required"`
}

// CalendarResponse is the month view (aliased from the domain layer).
type CalendarResponse = tracker.CalendarMonth

// ReportResponse is the month statistics report.
type ReportResponse = activity.Report

// CollectionResponse is the content of a collection.
type CollectionResponse = tracker.CollectionView

// RecordResponse is returned by record writes.
type RecordResponse = tracker.RecordResult

// CountdownTick is the payload of one countdown.tick stream event.
type CountdownTick struct {
	Now   string          `json:"now"`
	Items []CountdownItem `json:"items"`
}

// CountdownItem is one upcoming interview with its countdown.
type CountdownItem struct {
	Event     models.Event           `json:"event"`
	Countdown *models.CountdownParts `json:"countdown"`
}
