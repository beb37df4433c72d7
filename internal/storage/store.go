// Package storage defines the persistence contract shared by the in-memory
// and PostgreSQL stores. The correlation engine and triage scorer depend on
// narrower consumer interfaces; this is the full surface the API layer and
// main wiring use.
package storage

import (
	"context"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
)

// AlertFilter narrows alert listings. Zero values mean no constraint.
type AlertFilter struct {
	Severity alert.Severity
	Source   string // case-insensitive substring match
	Limit    int
	Offset   int
}

// IncidentFilter narrows incident listings. Zero values mean no constraint.
type IncidentFilter struct {
	Statuses    []incident.Status
	MinPriority *float64
	Limit       int
	Offset      int
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	Action string
	Limit  int
	Offset int
}

// Stats are the dashboard counters. CriticalIncidents counts incidents at or
// above the cutoff passed to Stats.
type Stats struct {
	TotalAlerts            int `json:"total_alerts"`
	TotalIncidents         int `json:"total_incidents"`
	CriticalIncidents      int `json:"critical_incidents"`
	NewIncidents           int `json:"new_incidents"`
	InvestigatingIncidents int `json:"investigating_incidents"`
	ContainedIncidents     int `json:"contained_incidents"`
	ClosedIncidents        int `json:"closed_incidents"`
}

// Store is the full persistence interface. Listings are ordered: alerts by
// timestamp descending, incidents by priority score descending, audit entries
// by timestamp descending. Implementations return copies; callers may mutate
// results freely.
type Store interface {
	// Alerts.
	InsertAlert(ctx context.Context, a *alert.Alert) error
	AlertByID(ctx context.Context, id string) (*alert.Alert, bool, error)
	AlertByExternalID(ctx context.Context, externalID string) (*alert.Alert, bool, error)
	AlertsByIDs(ctx context.Context, ids []string) ([]*alert.Alert, error)
	ListAlerts(ctx context.Context, f AlertFilter) ([]*alert.Alert, error)
	AllAlerts(ctx context.Context) ([]*alert.Alert, error)
	CountAlertsByEntity(ctx context.Context, typ alert.EntityType, value string) (int, error)
	CountDistinctUsersForIP(ctx context.Context, ip string) (int, error)

	// Incidents.
	PutIncident(ctx context.Context, inc *incident.Incident) error
	IncidentByID(ctx context.Context, id string) (*incident.Incident, bool, error)
	ListIncidents(ctx context.Context, f IncidentFilter) ([]*incident.Incident, error)
	FirstIncidentForAlert(ctx context.Context, alertID string) (*incident.Incident, bool, error)
	DeleteAllIncidents(ctx context.Context) error

	// Audit trail.
	AppendAudit(ctx context.Context, e *audit.Entry) error
	ListAudit(ctx context.Context, f AuditFilter) ([]*audit.Entry, error)

	// Stats computes the dashboard counters.
	Stats(ctx context.Context, criticalCutoff float64) (*Stats, error)
}
