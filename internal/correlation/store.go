package correlation

import (
	"context"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
)

// Store is what the engine needs from persistence. The engine assumes every
// call within one correlation run observes a consistent snapshot; the Service
// enforces that by serializing runs.
type Store interface {
	// AllAlerts returns the full stored alert population.
	AllAlerts(ctx context.Context) ([]*alert.Alert, error)

	// FirstIncidentForAlert returns the earliest-created incident the alert
	// belongs to, if any. Only the first match matters to the engine.
	FirstIncidentForAlert(ctx context.Context, alertID string) (*incident.Incident, bool, error)

	// PutIncident creates or fully replaces an incident.
	PutIncident(ctx context.Context, inc *incident.Incident) error

	// DeleteAllIncidents discards every incident. Used by full re-correlation.
	DeleteAllIncidents(ctx context.Context) error
}

// ServiceStore extends Store with what ingestion needs.
type ServiceStore interface {
	Store

	InsertAlert(ctx context.Context, a *alert.Alert) error
	AlertByExternalID(ctx context.Context, externalID string) (*alert.Alert, bool, error)
	AppendAudit(ctx context.Context, e *audit.Entry) error
}

// Notifier is told about incidents whose priority crosses the configured
// threshold. Implementations must tolerate being called concurrently.
type Notifier interface {
	Notify(ctx context.Context, inc *incident.Incident) error
}
