package models

import (
	"fmt"
	"strings"
	"time"
)

// Collection names one of the raw record stores.
type Collection string

const (
	CollectionApplications Collection = "applications"
	CollectionInterviews   Collection = "interviews"
	CollectionRejections   Collection = "rejections"
	CollectionWithdrawals  Collection = "withdrawals"
	CollectionOffers       Collection = "offers"
)

// AllCollections lists every known collection.
var AllCollections = []Collection{
	CollectionApplications,
	CollectionInterviews,
	CollectionRejections,
	CollectionWithdrawals,
	CollectionOffers,
}

// ParseCollection returns the collection with the given name.
func ParseCollection(name string) (Collection, bool) {
	for _, c := range AllCollections {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Record is a loosely typed raw record as stored by the user. Field names
// differ between collections.
type Record map[string]any

// String returns the trimmed string value of key, or "" when the value is
// missing or not a string.
func (r Record) String(key string) string {
	v, ok := r[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// ID returns the record identifier. Numeric ids (common in imported JSON)
// are formatted without a fractional part.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprintf("%d", v)
	}
	return ""
}

// CollectionMetadata describes a stored collection file.
type CollectionMetadata struct {
	Name      Collection `json:"name"`
	Path      string     `json:"path"`
	Checksum  string     `json:"checksum"`
	UpdatedAt time.Time  `json:"updated_at"`
}
