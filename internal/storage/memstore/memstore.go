// Package memstore provides an in-memory implementation of storage.Store.
// Suitable for dev and testing; everything is lost on restart.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage"
)

// Store holds alerts, incidents, and the audit trail in memory. Incident
// creation order is preserved so FirstIncidentForAlert matches the engine's
// "first incident found" rule deterministically.
type Store struct {
	mu            sync.RWMutex
	alerts        map[string]*alert.Alert
	alertOrder    []string // insertion order
	byExternal    map[string]string
	incidents     map[string]*incident.Incident
	incidentOrder []string // creation order
	audits        []*audit.Entry
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{
		alerts:     make(map[string]*alert.Alert),
		byExternal: make(map[string]string),
		incidents:  make(map[string]*incident.Incident),
	}
}

// InsertAlert stores a copy of the alert.
func (s *Store) InsertAlert(_ context.Context, a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.alerts[a.ID] = &cp
	s.alertOrder = append(s.alertOrder, a.ID)
	s.byExternal[a.ExternalID] = a.ID
	return nil
}

// AlertByID retrieves an alert by its ID. Returns a copy.
func (s *Store) AlertByID(_ context.Context, id string) (*alert.Alert, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, false, nil
	}
	cp := *a
	return &cp, true, nil
}

// AlertByExternalID retrieves an alert by the source-assigned identifier.
func (s *Store) AlertByExternalID(_ context.Context, externalID string) (*alert.Alert, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byExternal[externalID]
	if !ok {
		return nil, false, nil
	}
	cp := *s.alerts[id]
	return &cp, true, nil
}

// AlertsByIDs returns copies of the named alerts in the given order,
// silently skipping unknown IDs.
func (s *Store) AlertsByIDs(_ context.Context, ids []string) ([]*alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*alert.Alert, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.alerts[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AllAlerts returns copies of every stored alert in insertion order.
func (s *Store) AllAlerts(_ context.Context) ([]*alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*alert.Alert, 0, len(s.alertOrder))
	for _, id := range s.alertOrder {
		cp := *s.alerts[id]
		out = append(out, &cp)
	}
	return out, nil
}

// ListAlerts returns alerts matching the filter, newest timestamp first.
func (s *Store) ListAlerts(ctx context.Context, f storage.AlertFilter) ([]*alert.Alert, error) {
	all, _ := s.AllAlerts(ctx)

	filtered := all[:0]
	for _, a := range all {
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.Source != "" && !strings.Contains(strings.ToLower(a.Source), strings.ToLower(f.Source)) {
			continue
		}
		filtered = append(filtered, a)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	return page(filtered, f.Offset, f.Limit), nil
}

// CountAlertsByEntity counts stored alerts carrying exactly value for the
// given entity type.
func (s *Store) CountAlertsByEntity(_ context.Context, typ alert.EntityType, value string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.alerts {
		if entityValue(a, typ) == value {
			count++
		}
	}
	return count, nil
}

// CountDistinctUsersForIP counts distinct non-empty users seen with the IP.
func (s *Store) CountDistinctUsersForIP(_ context.Context, ip string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := map[string]struct{}{}
	for _, a := range s.alerts {
		if a.EntityIP == ip && a.EntityUser != "" {
			users[a.EntityUser] = struct{}{}
		}
	}
	return len(users), nil
}

// PutIncident stores a copy of the incident, creating or replacing it.
func (s *Store) PutIncident(_ context.Context, inc *incident.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incidents[inc.ID]; !ok {
		s.incidentOrder = append(s.incidentOrder, inc.ID)
	}
	s.incidents[inc.ID] = cloneIncident(inc)
	return nil
}

// IncidentByID retrieves an incident by ID. Returns a copy.
func (s *Store) IncidentByID(_ context.Context, id string) (*incident.Incident, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incidents[id]
	if !ok {
		return nil, false, nil
	}
	return cloneIncident(inc), true, nil
}

// ListIncidents returns incidents matching the filter, highest priority first.
func (s *Store) ListIncidents(_ context.Context, f storage.IncidentFilter) ([]*incident.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*incident.Incident
	for _, id := range s.incidentOrder {
		inc := s.incidents[id]
		if len(f.Statuses) > 0 && !statusIn(inc.Status, f.Statuses) {
			continue
		}
		if f.MinPriority != nil && inc.PriorityScore < *f.MinPriority {
			continue
		}
		out = append(out, cloneIncident(inc))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})

	return page(out, f.Offset, f.Limit), nil
}

// FirstIncidentForAlert returns the earliest-created incident containing the
// alert, if any.
func (s *Store) FirstIncidentForAlert(_ context.Context, alertID string) (*incident.Incident, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.incidentOrder {
		inc := s.incidents[id]
		if inc.HasAlert(alertID) {
			return cloneIncident(inc), true, nil
		}
	}
	return nil, false, nil
}

// DeleteAllIncidents discards every incident.
func (s *Store) DeleteAllIncidents(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents = make(map[string]*incident.Incident)
	s.incidentOrder = nil
	return nil
}

// AppendAudit stores a copy of the audit entry.
func (s *Store) AppendAudit(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	if cp.Actor == "" {
		cp.Actor = "analyst"
	}
	s.audits = append(s.audits, &cp)
	return nil
}

// ListAudit returns audit entries matching the filter, newest first.
func (s *Store) ListAudit(_ context.Context, f storage.AuditFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.Entry
	for i := len(s.audits) - 1; i >= 0; i-- {
		e := s.audits[i]
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}

	return page(out, f.Offset, f.Limit), nil
}

// Stats computes the dashboard counters.
func (s *Store) Stats(_ context.Context, criticalCutoff float64) (*storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &storage.Stats{
		TotalAlerts:    len(s.alerts),
		TotalIncidents: len(s.incidents),
	}
	for _, inc := range s.incidents {
		if inc.PriorityScore >= criticalCutoff {
			stats.CriticalIncidents++
		}
		switch inc.Status {
		case incident.StatusNew:
			stats.NewIncidents++
		case incident.StatusInvestigating:
			stats.InvestigatingIncidents++
		case incident.StatusContained:
			stats.ContainedIncidents++
		case incident.StatusClosed:
			stats.ClosedIncidents++
		}
	}
	return stats, nil
}

func cloneIncident(inc *incident.Incident) *incident.Incident {
	cp := *inc
	cp.AlertIDs = append([]string(nil), inc.AlertIDs...)
	cp.Entities = alert.Entities{
		Users:     append([]string(nil), inc.Entities.Users...),
		IPs:       append([]string(nil), inc.Entities.IPs...),
		Devices:   append([]string(nil), inc.Entities.Devices...),
		Locations: append([]string(nil), inc.Entities.Locations...),
	}
	if inc.Explanation != nil {
		expl := *inc.Explanation
		expl.RiskReasons = append([]string(nil), inc.Explanation.RiskReasons...)
		cp.Explanation = &expl
	}
	return &cp
}

func entityValue(a *alert.Alert, typ alert.EntityType) string {
	switch typ {
	case alert.EntityUser:
		return a.EntityUser
	case alert.EntityIP:
		return a.EntityIP
	case alert.EntityDevice:
		return a.EntityDevice
	case alert.EntityLocation:
		return a.EntityLocation
	default:
		return ""
	}
}

func statusIn(st incident.Status, set []incident.Status) bool {
	for _, s := range set {
		if s == st {
			return true
		}
	}
	return false
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
