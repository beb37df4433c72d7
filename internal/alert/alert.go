// Package alert defines the normalized security alert model shared by the
// correlation engine, the triage scorer, and the API layer. Alerts are
// created once by the ingestion pipeline and never mutated afterwards.
package alert

import "time"

// Severity is the ordered severity of an alert: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the position of s in the severity order. Unknown values rank
// below low so a malformed record never wins a max-severity comparison.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// EntityType identifies which entity field of an alert a value came from.
type EntityType string

const (
	EntityUser     EntityType = "user"
	EntityIP       EntityType = "ip"
	EntityDevice   EntityType = "device"
	EntityLocation EntityType = "location"
)

// Alert is a normalized security event. ExternalID is the identifier assigned
// by the originating product and is unique across the store. The entity fields
// are independently optional; an empty string means the source reported
// nothing for that attribute. A zero Timestamp means the event time is
// unknown, which is a valid state.
type Alert struct {
	ID             string    `json:"id"`
	ExternalID     string    `json:"external_id"`
	Source         string    `json:"source"`
	Category       string    `json:"category"`
	Severity       Severity  `json:"severity"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	EntityUser     string    `json:"entity_user,omitempty"`
	EntityIP       string    `json:"entity_ip,omitempty"`
	EntityDevice   string    `json:"entity_device,omitempty"`
	EntityLocation string    `json:"entity_location,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitzero"`
	RawPayload     string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasTimestamp reports whether the event time is known.
func (a *Alert) HasTimestamp() bool {
	return !a.Timestamp.IsZero()
}
