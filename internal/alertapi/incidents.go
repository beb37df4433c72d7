package alertapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/report"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage"
)

// incidentSummary is the list-view shape: membership is collapsed to a count.
type incidentSummary struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Status        incident.Status `json:"status"`
	PriorityScore float64         `json:"priority_score"`
	AlertCount    int             `json:"alert_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// incidentDetail is the single-incident shape with member alerts expanded.
type incidentDetail struct {
	*incident.Incident
	Alerts []*alert.Alert `json:"alerts"`
}

func summarize(incs []*incident.Incident) []incidentSummary {
	out := make([]incidentSummary, 0, len(incs))
	for _, inc := range incs {
		out = append(out, incidentSummary{
			ID:            inc.ID,
			Title:         inc.Title,
			Status:        inc.Status,
			PriorityScore: inc.PriorityScore,
			AlertCount:    len(inc.AlertIDs),
			CreatedAt:     inc.CreatedAt,
			UpdatedAt:     inc.UpdatedAt,
		})
	}
	return out
}

func (a *API) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f storage.IncidentFilter
	if raw := q.Get("status"); raw != "" {
		status := incident.Status(raw)
		if !status.Valid() {
			a.respondError(w, http.StatusBadRequest, "unknown status")
			return
		}
		f.Statuses = []incident.Status{status}
	}
	if raw := q.Get("min_priority"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			a.respondError(w, http.StatusBadRequest, "min_priority must be a number")
			return
		}
		f.MinPriority = &min
	}
	f.Limit = queryInt(r, "limit", 100)
	f.Offset = queryInt(r, "skip", 0)

	incs, err := a.store.ListIncidents(r.Context(), f)
	if err != nil {
		a.internalError(w, r, err, "list incidents")
		return
	}
	a.respondJSON(w, http.StatusOK, summarize(incs))
}

func (a *API) handleHighPriority(w http.ResponseWriter, r *http.Request) {
	incs, err := a.store.ListIncidents(r.Context(), storage.IncidentFilter{
		Statuses: []incident.Status{incident.StatusNew, incident.StatusInvestigating},
		Limit:    queryInt(r, "limit", 10),
	})
	if err != nil {
		a.internalError(w, r, err, "list high-priority incidents")
		return
	}
	a.respondJSON(w, http.StatusOK, summarize(incs))
}

func (a *API) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	inc, alerts, ok := a.loadIncident(w, r)
	if !ok {
		return
	}
	a.respondJSON(w, http.StatusOK, incidentDetail{Incident: inc, Alerts: alerts})
}

// incidentUpdate is the PATCH body. Nil fields are left untouched; empty
// strings are valid values (clearing notes is allowed).
type incidentUpdate struct {
	Status   *incident.Status `json:"status"`
	Notes    *string          `json:"notes"`
	Evidence *string          `json:"evidence"`
}

func (a *API) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update incidentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if update.Status != nil && !update.Status.Valid() {
		a.respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	inc, ok, err := a.store.IncidentByID(r.Context(), id)
	if err != nil {
		a.internalError(w, r, err, "get incident", "id", id)
		return
	}
	if !ok {
		a.respondError(w, http.StatusNotFound, "incident not found")
		return
	}

	changes := map[string]any{}
	if update.Status != nil {
		changes["status"] = map[string]any{"old": string(inc.Status), "new": string(*update.Status)}
		inc.Status = *update.Status
	}
	if update.Notes != nil {
		inc.Notes = *update.Notes
		changes["notes"] = "updated"
	}
	if update.Evidence != nil {
		inc.Evidence = *update.Evidence
		changes["evidence"] = "updated"
	}
	inc.UpdatedAt = a.now().UTC()

	if err := a.store.PutIncident(r.Context(), inc); err != nil {
		a.internalError(w, r, err, "update incident", "id", id)
		return
	}

	a.appendAudit(r, audit.ActionStatusChange, "incident", id, changes)

	alerts, err := a.store.AlertsByIDs(r.Context(), inc.AlertIDs)
	if err != nil {
		a.internalError(w, r, err, "load incident alerts", "id", id)
		return
	}
	a.respondJSON(w, http.StatusOK, incidentDetail{Incident: inc, Alerts: alerts})
}

func (a *API) handleIncidentReport(w http.ResponseWriter, r *http.Request) {
	inc, alerts, ok := a.loadIncident(w, r)
	if !ok {
		return
	}

	md := report.Markdown(inc, alerts, a.now())

	a.appendAudit(r, audit.ActionReportExport, "incident", inc.ID, map[string]any{"format": "markdown"})

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(md))
}

func (a *API) handleIncidentSummary(w http.ResponseWriter, r *http.Request) {
	if a.summarizer == nil {
		a.respondError(w, http.StatusServiceUnavailable, "summarizer not configured")
		return
	}

	inc, alerts, ok := a.loadIncident(w, r)
	if !ok {
		return
	}

	summary, err := a.summarizer.Summarize(r.Context(), inc, alerts)
	if err != nil {
		a.internalError(w, r, err, "summarize incident", "id", inc.ID)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]string{
		"incident_id": inc.ID,
		"summary":     summary,
	})
}

// loadIncident fetches the incident from the URL param plus its member
// alerts, writing the error response itself when it returns ok=false.
func (a *API) loadIncident(w http.ResponseWriter, r *http.Request) (*incident.Incident, []*alert.Alert, bool) {
	id := chi.URLParam(r, "id")

	inc, ok, err := a.store.IncidentByID(r.Context(), id)
	if err != nil {
		a.internalError(w, r, err, "get incident", "id", id)
		return nil, nil, false
	}
	if !ok {
		a.respondError(w, http.StatusNotFound, "incident not found")
		return nil, nil, false
	}

	alerts, err := a.store.AlertsByIDs(r.Context(), inc.AlertIDs)
	if err != nil {
		a.internalError(w, r, err, "load incident alerts", "id", id)
		return nil, nil, false
	}
	return inc, alerts, true
}
