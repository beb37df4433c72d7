package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/postgres"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage/pgstore"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/triage"
)

// openStore connects to the integration database, applies the schema, and
// truncates all tables so every test starts clean.
func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("TRIAGEHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TRIAGEHUB_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE incident_alerts, incidents, alerts, audit_log`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func sampleAlert(id, externalID string, ts time.Time) *alert.Alert {
	return &alert.Alert{
		ID:             id,
		ExternalID:     externalID,
		Source:         "Microsoft Defender",
		Category:       "Credential Access",
		Severity:       alert.SeverityHigh,
		Title:          "Failed sign-in burst",
		Description:    "25 failures in 5 minutes",
		EntityUser:     "jdoe@corp.example",
		EntityIP:       "10.0.0.5",
		Timestamp:      ts,
		RawPayload:     `{"id":"` + externalID + `"}`,
		CreatedAt:      ts,
	}
}

func TestAlertRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond).UTC()

	a := sampleAlert("a1", "x1", now)
	if err := s.InsertAlert(ctx, a); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	got, ok, err := s.AlertByID(ctx, "a1")
	if err != nil {
		t.Fatalf("AlertByID: %v", err)
	}
	if !ok {
		t.Fatal("AlertByID returned ok=false")
	}
	if got.ExternalID != "x1" || got.Severity != alert.SeverityHigh || got.EntityUser != "jdoe@corp.example" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(now) || !got.CreatedAt.Equal(now) {
		t.Errorf("timestamps = %v / %v, want %v", got.Timestamp, got.CreatedAt, now)
	}

	byExt, ok, err := s.AlertByExternalID(ctx, "x1")
	if err != nil || !ok {
		t.Fatalf("AlertByExternalID: ok=%v err=%v", ok, err)
	}
	if byExt.ID != "a1" {
		t.Errorf("external lookup returned %q", byExt.ID)
	}

	if _, ok, _ = s.AlertByID(ctx, "missing"); ok {
		t.Error("unknown ID reported as found")
	}
}

func TestAlertNullFields(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond).UTC()

	// Zero timestamp and empty optionals become NULL and must come back as
	// zero values.
	a := &alert.Alert{ID: "a1", ExternalID: "x1", Severity: alert.SeverityLow, Title: "Bare alert", CreatedAt: now}
	if err := s.InsertAlert(ctx, a); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	got, ok, err := s.AlertByID(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("AlertByID: ok=%v err=%v", ok, err)
	}
	if got.HasTimestamp() {
		t.Errorf("timestamp = %v, want zero", got.Timestamp)
	}
	if got.Description != "" || got.EntityUser != "" || got.EntityIP != "" {
		t.Errorf("optional fields not empty: %+v", got)
	}
}

func TestListAlertsFilters(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond).UTC()

	for i, a := range []*alert.Alert{
		{ID: "a1", ExternalID: "x1", Severity: alert.SeverityLow, Source: "Azure AD", Timestamp: now.Add(time.Hour)},
		{ID: "a2", ExternalID: "x2", Severity: alert.SeverityHigh, Source: "Microsoft Defender", Timestamp: now},
		{ID: "a3", ExternalID: "x3", Severity: alert.SeverityHigh, Source: "Microsoft Defender"},
	} {
		a.CreatedAt = now.Add(time.Duration(i) * time.Second)
		if err := s.InsertAlert(ctx, a); err != nil {
			t.Fatalf("InsertAlert: %v", err)
		}
	}

	all, err := s.ListAlerts(ctx, storage.AlertFilter{})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	// Newest first, NULL timestamps last.
	if len(all) != 3 || all[0].ID != "a1" || all[1].ID != "a2" || all[2].ID != "a3" {
		t.Errorf("order = %v", alertIDs(all))
	}

	high, err := s.ListAlerts(ctx, storage.AlertFilter{Severity: alert.SeverityHigh, Source: "defender"})
	if err != nil {
		t.Fatalf("ListAlerts filtered: %v", err)
	}
	if len(high) != 2 {
		t.Errorf("filtered = %v", alertIDs(high))
	}

	if n, err := s.CountAlertsByEntity(ctx, alert.EntityUser, "jdoe@corp.example"); err != nil || n != 0 {
		t.Errorf("CountAlertsByEntity = %d err=%v", n, err)
	}
}

func TestIncidentRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond).UTC()

	for i, id := range []string{"a1", "a2", "a3"} {
		if err := s.InsertAlert(ctx, sampleAlert(id, "x"+id, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("InsertAlert: %v", err)
		}
	}

	inc := &incident.Incident{
		ID:            "i1",
		Title:         "High Credential Access Incident (3 alerts)",
		Status:        incident.StatusNew,
		PriorityScore: 64.5,
		AlertIDs:      []string{"a2", "a1", "a3"}, // membership order is not ID order
		Entities:      alert.Entities{Users: []string{"jdoe@corp.example"}, IPs: []string{"10.0.0.5"}},
		Explanation: &triage.Explanation{
			SeverityScore:  36,
			SeverityReason: "Highest severity: high, 3 high alerts (+6)",
			RiskReasons:    []string{},
			TotalScore:     64.5,
			AlertCount:     3,
		},
		Notes:     "under review",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.PutIncident(ctx, inc); err != nil {
		t.Fatalf("PutIncident: %v", err)
	}

	got, ok, err := s.IncidentByID(ctx, "i1")
	if err != nil || !ok {
		t.Fatalf("IncidentByID: ok=%v err=%v", ok, err)
	}
	if got.Title != inc.Title || got.PriorityScore != 64.5 || got.Notes != "under review" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.AlertIDs) != 3 || got.AlertIDs[0] != "a2" || got.AlertIDs[1] != "a1" || got.AlertIDs[2] != "a3" {
		t.Errorf("membership order = %v, want [a2 a1 a3]", got.AlertIDs)
	}
	if got.Explanation == nil || got.Explanation.SeverityReason != inc.Explanation.SeverityReason {
		t.Errorf("explanation = %+v", got.Explanation)
	}
	if len(got.Entities.Users) != 1 || got.Entities.Users[0] != "jdoe@corp.example" {
		t.Errorf("entities = %+v", got.Entities)
	}

	// Replacing rewrites the membership.
	inc.AlertIDs = []string{"a1"}
	inc.Status = incident.StatusContained
	if err := s.PutIncident(ctx, inc); err != nil {
		t.Fatalf("PutIncident replace: %v", err)
	}
	got, _, _ = s.IncidentByID(ctx, "i1")
	if got.Status != incident.StatusContained || len(got.AlertIDs) != 1 {
		t.Errorf("replaced incident = %+v", got)
	}
}

func TestFirstIncidentForAlertOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond).UTC()

	if err := s.InsertAlert(ctx, sampleAlert("a1", "x1", now)); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	for i, id := range []string{"i1", "i2"} {
		inc := &incident.Incident{
			ID:        id,
			Status:    incident.StatusNew,
			AlertIDs:  []string{"a1"},
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now,
		}
		if err := s.PutIncident(ctx, inc); err != nil {
			t.Fatalf("PutIncident: %v", err)
		}
	}

	got, ok, err := s.FirstIncidentForAlert(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("FirstIncidentForAlert: ok=%v err=%v", ok, err)
	}
	if got.ID != "i1" {
		t.Errorf("got %q, want the earliest-created incident", got.ID)
	}

	if err := s.DeleteAllIncidents(ctx); err != nil {
		t.Fatalf("DeleteAllIncidents: %v", err)
	}
	if _, ok, _ := s.FirstIncidentForAlert(ctx, "a1"); ok {
		t.Error("membership survived DeleteAllIncidents")
	}
}

func TestAuditAndStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond).UTC()

	if err := s.AppendAudit(ctx, &audit.Entry{
		ID:        "e1",
		Action:    audit.ActionDataImport,
		EntityID:  "batch.json",
		Details:   map[string]any{"alerts_imported": float64(2)},
		Timestamp: now,
	}); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}

	entries, err := s.ListAudit(ctx, storage.AuditFilter{Action: audit.ActionDataImport})
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Actor != "analyst" {
		t.Errorf("empty actor = %q, want schema default", entries[0].Actor)
	}
	if entries[0].Details["alerts_imported"] != float64(2) {
		t.Errorf("details = %v", entries[0].Details)
	}

	if err := s.InsertAlert(ctx, sampleAlert("a1", "x1", now)); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}
	if err := s.PutIncident(ctx, &incident.Incident{
		ID: "i1", Status: incident.StatusNew, PriorityScore: 80,
		AlertIDs: []string{"a1"}, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("PutIncident: %v", err)
	}

	stats, err := s.Stats(ctx, 70)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalAlerts != 1 || stats.TotalIncidents != 1 || stats.CriticalIncidents != 1 || stats.NewIncidents != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestQuerySpans(t *testing.T) {
	// Not parallel: swaps the global OTel tracer provider.
	s := openStore(t)
	ctx := context.Background()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	now := time.Now().Truncate(time.Microsecond).UTC()
	if err := s.InsertAlert(ctx, sampleAlert("a1", "x1", now)); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}
	if _, _, err := s.AlertByID(ctx, "a1"); err != nil {
		t.Fatalf("AlertByID: %v", err)
	}

	counts := make(map[string]int)
	for _, span := range exporter.GetSpans() {
		counts[span.Name]++
	}
	for _, name := range []string{"pgstore.InsertAlert", "pgstore.AlertByID"} {
		if counts[name] == 0 {
			t.Errorf("span %q not recorded (got %v)", name, counts)
		}
	}
}

func alertIDs(alerts []*alert.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.ID
	}
	return out
}
