// Package incident defines the incident aggregate produced by the correlation
// engine: a cluster of related alerts with a recomputed title, entity
// snapshots, and an explainable priority score.
package incident

import (
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/triage"
)

// Status tracks where an incident is in the analyst workflow.
type Status string

const (
	// StatusNew is the only status the correlation engine ever assigns.
	StatusNew Status = "new"

	// StatusInvestigating, StatusContained and StatusClosed are set by
	// analysts through the API, never by the engine.
	StatusInvestigating Status = "investigating"
	StatusContained     Status = "contained"
	StatusClosed        Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInvestigating, StatusContained, StatusClosed:
		return true
	}
	return false
}

// Incident is a correlated group of alerts. Title, Entities, PriorityScore
// and Explanation are recomputed over the full membership on every change,
// so they are never stale relative to AlertIDs. Notes and Evidence belong to
// analysts; the engine never writes them.
type Incident struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Status        Status             `json:"status"`
	PriorityScore float64            `json:"priority_score"`
	Explanation   *triage.Explanation `json:"score_explanation,omitempty"`
	Entities      alert.Entities     `json:"entities"`
	Notes         string             `json:"notes,omitempty"`
	Evidence      string             `json:"evidence,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	AlertIDs      []string           `json:"alert_ids"`
}

// HasAlert reports whether the alert is already a member.
func (i *Incident) HasAlert(alertID string) bool {
	for _, id := range i.AlertIDs {
		if id == alertID {
			return true
		}
	}
	return false
}
