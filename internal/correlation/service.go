package correlation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
)

// IngestSummary is the outcome of an ingest or re-correlation run.
type IngestSummary struct {
	AlertsImported   int    `json:"alerts_imported"`
	AlertsSkipped    int    `json:"alerts_skipped"`
	IncidentsCreated int    `json:"incidents_created"`
	Message          string `json:"message"`
}

// Service is the business boundary for ingestion and correlation. It owns the
// single-writer discipline: the engine's clustering is not safe under
// concurrent interleaving, so every run takes the service mutex and completes
// before the next begins.
type Service struct {
	store           ServiceStore
	engine          *Engine
	logger          log.Logger
	metrics         *Metrics
	notifier        Notifier
	notifyThreshold float64

	mu  sync.Mutex
	now func() time.Time
}

// NewService creates the correlation service. metrics and notifier may be
// nil; notifyThreshold is the minimum priority score that triggers a
// notification.
func NewService(store ServiceStore, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier, notifyThreshold float64) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:           store,
		engine:          engine,
		logger:          logger,
		metrics:         metrics,
		notifier:        notifier,
		notifyThreshold: notifyThreshold,
		now:             time.Now,
	}
}

// Ingest persists a batch of normalized alerts, skipping external IDs already
// stored, then correlates the new alerts into incidents. origin names the
// upload (typically a filename) for the audit trail. Incoming alerts must not
// have IDs yet; the service assigns them.
func (s *Service) Ingest(ctx context.Context, incoming []*alert.Alert, origin string, act audit.Actor) (*IngestSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()

	var newAlerts []*alert.Alert
	skipped := 0
	for _, a := range incoming {
		_, exists, err := s.store.AlertByExternalID(ctx, a.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("duplicate check for %q: %w", a.ExternalID, err)
		}
		if exists {
			skipped++
			continue
		}

		a.ID = ulid.Make().String()
		a.CreatedAt = s.now().UTC()
		if err := s.store.InsertAlert(ctx, a); err != nil {
			return nil, fmt.Errorf("insert alert %q: %w", a.ExternalID, err)
		}
		newAlerts = append(newAlerts, a)
	}

	incidents, err := s.engine.Correlate(ctx, newAlerts)
	if err != nil {
		s.metrics.IncRun("ingest", "error", s.now().Sub(start).Seconds())
		return nil, err
	}
	s.metrics.IncRun("ingest", "ok", s.now().Sub(start).Seconds())
	s.metrics.IncImported(len(newAlerts), skipped)

	s.appendAudit(ctx, act, audit.ActionDataImport, "alert", origin, map[string]any{
		"alerts_imported":   len(newAlerts),
		"skipped":           skipped,
		"incidents_created": len(incidents),
	})

	s.notify(ctx, incidents)

	msg := fmt.Sprintf("Imported %d alerts, created %d incidents", len(newAlerts), len(incidents))
	if skipped > 0 {
		msg += fmt.Sprintf(" (skipped %d duplicates)", skipped)
	}

	return &IngestSummary{
		AlertsImported:   len(newAlerts),
		AlertsSkipped:    skipped,
		IncidentsCreated: len(incidents),
		Message:          msg,
	}, nil
}

// Recorrelate discards all incidents and rebuilds them from every stored
// alert. Useful after importing data or changing correlation parameters.
func (s *Service) Recorrelate(ctx context.Context, act audit.Actor) (*IngestSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()

	incidents, err := s.engine.Recorrelate(ctx)
	if err != nil {
		s.metrics.IncRun("recorrelate", "error", s.now().Sub(start).Seconds())
		return nil, err
	}
	s.metrics.IncRun("recorrelate", "ok", s.now().Sub(start).Seconds())

	all, err := s.store.AllAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	s.appendAudit(ctx, act, audit.ActionRecorrelate, "system", "all", map[string]any{
		"incidents_created": len(incidents),
	})

	return &IngestSummary{
		AlertsImported:   len(all),
		IncidentsCreated: len(incidents),
		Message:          fmt.Sprintf("Re-correlated %d alerts into %d incidents", len(all), len(incidents)),
	}, nil
}

func (s *Service) appendAudit(ctx context.Context, act audit.Actor, action, entityType, entityID string, details map[string]any) {
	entry := &audit.Entry{
		ID:         ulid.Make().String(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Actor:      act.Name,
		ClientIP:   act.ClientIP,
		Timestamp:  s.now().UTC(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Error(ctx, err, "append audit entry", "action", action)
	}
}

// notify informs the notifier about incidents at or above the threshold.
// Notification failures are logged, never surfaced to the caller.
func (s *Service) notify(ctx context.Context, incidents []*incident.Incident) {
	if s.notifier == nil {
		return
	}
	for _, inc := range incidents {
		if inc.PriorityScore < s.notifyThreshold {
			continue
		}
		if err := s.notifier.Notify(ctx, inc); err != nil {
			s.logger.Error(ctx, err, "incident notification failed", "incident_id", inc.ID)
		}
	}
}
