package correlation

import (
	"context"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage/memstore"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/triage"
)

// listAll is the unconstrained incident filter.
func listAll() storage.IncidentFilter {
	return storage.IncidentFilter{}
}

var engineNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestEngine(store *memstore.Store) *Engine {
	scorer := triage.NewScorer(store, triage.DefaultConfig())
	e := NewEngine(store, scorer, DefaultConfig(), log.Nop(), nil)
	e.now = func() time.Time { return engineNow }
	return e
}

// ingest stores the alerts and correlates them as one batch, the way the
// ingestion path does.
func ingest(t *testing.T, store *memstore.Store, e *Engine, batch []*alert.Alert) []*incident.Incident {
	t.Helper()
	ctx := context.Background()
	for _, a := range batch {
		if err := store.InsertAlert(ctx, a); err != nil {
			t.Fatalf("InsertAlert(%s): %v", a.ID, err)
		}
	}
	incidents, err := e.Correlate(ctx, batch)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	return incidents
}

func TestCorrelate_EmptyBatch(t *testing.T) {
	t.Parallel()

	e := newTestEngine(memstore.New())
	incidents, err := e.Correlate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if incidents != nil {
		t.Errorf("incidents = %v, want nil", incidents)
	}
}

func TestCorrelate_GroupsOverlappingAlerts(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	e := newTestEngine(store)

	batch := []*alert.Alert{
		{
			ID: "a1", ExternalID: "x1", Severity: alert.SeverityHigh,
			Category: "Credential Access", Title: "Failed sign-in burst",
			EntityUser: "jdoe@corp.example", Timestamp: engineNow,
		},
		{
			ID: "a2", ExternalID: "x2", Severity: alert.SeverityMedium,
			Category: "Credential Access", Title: "Risky sign-in",
			EntityUser: "jdoe@corp.example", Timestamp: engineNow.Add(30 * time.Minute),
		},
	}

	incidents := ingest(t, store, e, batch)

	if len(incidents) != 1 {
		t.Fatalf("got %d incidents, want 1", len(incidents))
	}
	inc := incidents[0]
	if len(inc.AlertIDs) != 2 || inc.AlertIDs[0] != "a1" || inc.AlertIDs[1] != "a2" {
		t.Errorf("alert IDs = %v, want [a1 a2]", inc.AlertIDs)
	}
	if inc.Status != incident.StatusNew {
		t.Errorf("status = %q, want %q", inc.Status, incident.StatusNew)
	}
	if inc.Title == "" {
		t.Error("incident has no title")
	}
	if len(inc.Entities.Users) != 1 || inc.Entities.Users[0] != "jdoe@corp.example" {
		t.Errorf("entity users = %v", inc.Entities.Users)
	}
	if inc.PriorityScore <= 0 {
		t.Errorf("priority score = %g, want > 0", inc.PriorityScore)
	}
	if inc.Explanation == nil {
		t.Fatal("incident has no explanation")
	}
	if inc.Explanation.AlertCount != 2 {
		t.Errorf("explanation alert count = %d, want 2", inc.Explanation.AlertCount)
	}
	if !inc.CreatedAt.Equal(engineNow) || !inc.UpdatedAt.Equal(engineNow) {
		t.Errorf("timestamps = %v / %v, want %v", inc.CreatedAt, inc.UpdatedAt, engineNow)
	}
}

func TestCorrelate_UnrelatedAlertsStaySeparate(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	e := newTestEngine(store)

	batch := []*alert.Alert{
		{ID: "a1", ExternalID: "x1", Severity: alert.SeverityLow, EntityUser: "jdoe", Timestamp: engineNow},
		{ID: "a2", ExternalID: "x2", Severity: alert.SeverityLow, EntityUser: "asmith", Timestamp: engineNow},
	}

	incidents := ingest(t, store, e, batch)

	if len(incidents) != 2 {
		t.Fatalf("got %d incidents, want 2", len(incidents))
	}
	if incidents[0].ID == incidents[1].ID {
		t.Error("both alerts landed in the same incident")
	}
	for i, inc := range incidents {
		if len(inc.AlertIDs) != 1 {
			t.Errorf("incident %d has alerts %v, want exactly one", i, inc.AlertIDs)
		}
	}
}

func TestCorrelate_WindowExcludesDistantAlerts(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	e := newTestEngine(store)

	// Same user, but 2h apart with a 1h window.
	batch := []*alert.Alert{
		{ID: "a1", ExternalID: "x1", Severity: alert.SeverityLow, EntityUser: "jdoe", Timestamp: engineNow},
		{ID: "a2", ExternalID: "x2", Severity: alert.SeverityLow, EntityUser: "jdoe", Timestamp: engineNow.Add(2 * time.Hour)},
	}

	incidents := ingest(t, store, e, batch)

	if len(incidents) != 2 {
		t.Fatalf("got %d incidents, want 2", len(incidents))
	}
}

func TestCorrelate_MergesIntoExistingIncident(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	e := newTestEngine(store)

	first := ingest(t, store, e, []*alert.Alert{
		{ID: "a1", ExternalID: "x1", Severity: alert.SeverityMedium, EntityUser: "jdoe", Timestamp: engineNow},
	})
	if len(first) != 1 {
		t.Fatalf("got %d incidents, want 1", len(first))
	}

	second := ingest(t, store, e, []*alert.Alert{
		{ID: "a2", ExternalID: "x2", Severity: alert.SeverityCritical, EntityUser: "jdoe", Timestamp: engineNow.Add(15 * time.Minute)},
	})
	if len(second) != 1 {
		t.Fatalf("got %d incidents, want 1", len(second))
	}

	if second[0].ID != first[0].ID {
		t.Errorf("new alert created incident %s instead of joining %s", second[0].ID, first[0].ID)
	}
	if got := second[0].AlertIDs; len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Errorf("alert IDs = %v, want [a1 a2]", got)
	}
	// The score is recomputed over the full membership, so the critical
	// alert must raise it.
	if second[0].PriorityScore <= first[0].PriorityScore {
		t.Errorf("score did not increase: %g -> %g", first[0].PriorityScore, second[0].PriorityScore)
	}

	all, err := store.ListIncidents(context.Background(), listAll())
	if err != nil {
		t.Fatalf("ListIncidents: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("store holds %d incidents, want 1", len(all))
	}
}

func TestCorrelate_FirstRelatedIncidentWins(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	e := newTestEngine(store)

	// Two unrelated incidents.
	incs := ingest(t, store, e, []*alert.Alert{
		{ID: "a1", ExternalID: "x1", Severity: alert.SeverityLow, EntityUser: "jdoe", Timestamp: engineNow},
		{ID: "a2", ExternalID: "x2", Severity: alert.SeverityLow, EntityIP: "10.0.0.5", Timestamp: engineNow},
	})
	if len(incs) != 2 {
		t.Fatalf("got %d incidents, want 2", len(incs))
	}

	// a3 overlaps both, but a1 comes first in the population, so its
	// incident takes the merge. The incidents are never combined.
	merged := ingest(t, store, e, []*alert.Alert{
		{ID: "a3", ExternalID: "x3", Severity: alert.SeverityLow, EntityUser: "jdoe", EntityIP: "10.0.0.5", Timestamp: engineNow.Add(10 * time.Minute)},
	})
	if len(merged) != 1 {
		t.Fatalf("got %d incidents, want 1", len(merged))
	}
	if merged[0].ID != incs[0].ID {
		t.Errorf("merged into %s, want %s", merged[0].ID, incs[0].ID)
	}

	all, err := store.ListIncidents(context.Background(), listAll())
	if err != nil {
		t.Fatalf("ListIncidents: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("store holds %d incidents, want 2", len(all))
	}
}

func TestCorrelate_BatchOrderDecidesGrouping(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	e := newTestEngine(store)

	// a1 relates to a2 (user) and a2 relates to a3 (ip), but a1 and a3
	// share nothing. Greedy grouping from a1 pulls in a2, leaving a3 alone.
	batch := []*alert.Alert{
		{ID: "a1", ExternalID: "x1", Severity: alert.SeverityLow, EntityUser: "jdoe", Timestamp: engineNow},
		{ID: "a2", ExternalID: "x2", Severity: alert.SeverityLow, EntityUser: "jdoe", EntityIP: "10.0.0.5", Timestamp: engineNow},
		{ID: "a3", ExternalID: "x3", Severity: alert.SeverityLow, EntityIP: "10.0.0.5", Timestamp: engineNow},
	}

	incidents := ingest(t, store, e, batch)

	if len(incidents) != 2 {
		t.Fatalf("got %d incidents, want 2", len(incidents))
	}
	if got := incidents[0].AlertIDs; len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Errorf("first incident alerts = %v, want [a1 a2]", got)
	}
	// a3 was left unassigned, but its related alert a2 already has an
	// incident, so a3 joins it rather than starting a new one.
	if got := incidents[1].AlertIDs; len(got) != 3 || got[2] != "a3" {
		t.Errorf("second incident alerts = %v, want [a1 a2 a3]", got)
	}
	if incidents[1].ID != incidents[0].ID {
		t.Errorf("a3 landed in %s, want %s", incidents[1].ID, incidents[0].ID)
	}
}

func TestRecorrelate_RebuildsFromScratch(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	e := newTestEngine(store)
	ctx := context.Background()

	ingest(t, store, e, []*alert.Alert{
		{ID: "a1", ExternalID: "x1", Severity: alert.SeverityLow, EntityUser: "jdoe", Timestamp: engineNow},
	})
	ingest(t, store, e, []*alert.Alert{
		{ID: "a2", ExternalID: "x2", Severity: alert.SeverityLow, EntityUser: "asmith", Timestamp: engineNow},
	})
	ingest(t, store, e, []*alert.Alert{
		{ID: "a3", ExternalID: "x3", Severity: alert.SeverityLow, EntityUser: "jdoe", Timestamp: engineNow.Add(20 * time.Minute)},
	})

	incidents, err := e.Recorrelate(ctx)
	if err != nil {
		t.Fatalf("Recorrelate: %v", err)
	}
	if len(incidents) != 2 {
		t.Fatalf("got %d incidents, want 2", len(incidents))
	}

	// Old incidents are discarded; only the rebuilt set remains.
	all, err := store.ListIncidents(ctx, listAll())
	if err != nil {
		t.Fatalf("ListIncidents: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("store holds %d incidents, want 2", len(all))
	}

	// A second rebuild over the same population lands in the same shape.
	again, err := e.Recorrelate(ctx)
	if err != nil {
		t.Fatalf("Recorrelate: %v", err)
	}
	if len(again) != len(incidents) {
		t.Errorf("rebuild produced %d incidents, previously %d", len(again), len(incidents))
	}
}
