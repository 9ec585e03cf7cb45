// Package models defines the domain types for jobtrail.
package models

import "time"

// Kind is the category of an application-lifecycle event.
type Kind string

const (
	KindApplied   Kind = "applied"
	KindInterview Kind = "interview"
	KindRejected  Kind = "rejected"
	KindWithdrawn Kind = "withdrawn"
	KindOffer     Kind = "offer"
)

// AllKinds lists every kind in lexicographic order.
var AllKinds = []Kind{KindApplied, KindInterview, KindOffer, KindRejected, KindWithdrawn}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindApplied, KindInterview, KindRejected, KindWithdrawn, KindOffer:
		return true
	}
	return false
}

// Label is the display fallback used when a record has no company.
func (k Kind) Label() string {
	switch k {
	case KindApplied:
		return "Applied"
	case KindInterview:
		return "Interview"
	case KindRejected:
		return "Rejected"
	case KindWithdrawn:
		return "Withdrawn"
	case KindOffer:
		return "Offer"
	}
	return string(k)
}

// Event is a canonical calendar event derived from a raw record.
type Event struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Kind           Kind   `json:"kind"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle,omitempty"`
	Time           string `json:"time,omitempty"`
	DateTime       string `json:"dateTime,omitempty"`
	Location       string `json:"location,omitempty"`
	EmploymentType string `json:"employmentType,omitempty"`
}

// GridDay is one cell of the fixed 42-cell month view.
type GridDay struct {
	Date           time.Time `json:"date"`
	ISO            string    `json:"iso"`
	InCurrentMonth bool      `json:"inCurrentMonth"`
}

// MonthStats holds event counts for one month (or for all time).
type MonthStats struct {
	Total    int          `json:"total"`
	ByKind   map[Kind]int `json:"byKind"`
	Outcomes int          `json:"outcomes"`
}

// CountdownParts is the absolute breakdown of the distance between an
// event and a reference instant.
type CountdownParts struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	IsPast  bool `json:"isPast"`
}
