// Package alertapi exposes the REST API: dashboard stats, alert and incident
// browsing, incident updates, report export, and data ingestion.
package alertapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/authmw"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/correlation"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage"
)

// criticalCutoff is the priority score at which an incident counts as
// critical on the dashboard.
const criticalCutoff = 70

// IngestService defines the write operations the API needs from the
// correlation service.
type IngestService interface {
	Ingest(ctx context.Context, incoming []*alert.Alert, origin string, act audit.Actor) (*correlation.IngestSummary, error)
	Recorrelate(ctx context.Context, act audit.Actor) (*correlation.IngestSummary, error)
}

// Summarizer produces an analyst-facing summary of an incident. Optional.
type Summarizer interface {
	Summarize(ctx context.Context, inc *incident.Incident, alerts []*alert.Alert) (string, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger     log.Logger
	store      storage.Store
	svc        IngestService
	summarizer Summarizer
	now        func() time.Time
}

// New creates a new API handler. summarizer may be nil, which disables the
// summary endpoint.
func New(logger log.Logger, store storage.Store, svc IngestService, summarizer Summarizer) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if store == nil {
		panic(xerrors.New("store is required"))
	}
	if svc == nil {
		panic(xerrors.New("ingest service is required"))
	}
	return &API{
		logger:     logger,
		store:      store,
		svc:        svc,
		summarizer: summarizer,
		now:        time.Now,
	}
}

// RegisterRoutes attaches API endpoints to the router. auth wraps every
// mutating route; pass nil to leave them open.
func (a *API) RegisterRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", a.handleStats)

		r.Get("/alerts", a.handleListAlerts)
		r.Get("/alerts/{id}", a.handleGetAlert)

		r.Get("/incidents", a.handleListIncidents)
		r.Get("/incidents/high-priority", a.handleHighPriority)
		r.Get("/incidents/{id}", a.handleGetIncident)
		r.Get("/incidents/{id}/report", a.handleIncidentReport)

		r.Get("/audit-log", a.handleAuditLog)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Patch("/incidents/{id}", a.handleUpdateIncident)
			r.Post("/incidents/{id}/summary", a.handleIncidentSummary)
			r.Post("/upload", a.handleUpload)
			r.Post("/seed", a.handleSeed)
			r.Post("/recorrelate", a.handleRecorrelate)
		})
	})
}

func (a *API) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) respondError(w http.ResponseWriter, status int, msg string) {
	a.respondJSON(w, status, map[string]string{"error": msg})
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, err error, msg string, kv ...any) {
	a.logger.Error(r.Context(), err, msg, kv...)
	a.respondError(w, http.StatusInternalServerError, "internal error")
}

// queryInt parses an integer query parameter, falling back to def when absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (a *API) appendAudit(r *http.Request, action, entityType, entityID string, details map[string]any) {
	act := authmw.ActorFromRequest(r)
	entry := &audit.Entry{
		ID:         ulid.Make().String(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Actor:      act.Name,
		ClientIP:   act.ClientIP,
		Timestamp:  a.now().UTC(),
	}
	if err := a.store.AppendAudit(r.Context(), entry); err != nil {
		a.logger.Error(r.Context(), err, "append audit entry", "action", action)
	}
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.Stats(r.Context(), criticalCutoff)
	if err != nil {
		a.internalError(w, r, err, "compute dashboard stats")
		return
	}
	a.respondJSON(w, http.StatusOK, stats)
}

func (a *API) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := a.store.ListAudit(r.Context(), storage.AuditFilter{
		Action: r.URL.Query().Get("action"),
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "skip", 0),
	})
	if err != nil {
		a.internalError(w, r, err, "list audit log")
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	a.respondJSON(w, http.StatusOK, entries)
}
