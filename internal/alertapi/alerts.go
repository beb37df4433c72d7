package alertapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage"
)

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	severity := alert.Severity(q.Get("severity"))
	if severity != "" && !severity.Valid() {
		a.respondError(w, http.StatusBadRequest, "unknown severity")
		return
	}

	alerts, err := a.store.ListAlerts(r.Context(), storage.AlertFilter{
		Severity: severity,
		Source:   q.Get("source"),
		Limit:    queryInt(r, "limit", 100),
		Offset:   queryInt(r, "skip", 0),
	})
	if err != nil {
		a.internalError(w, r, err, "list alerts")
		return
	}
	if alerts == nil {
		alerts = []*alert.Alert{}
	}
	a.respondJSON(w, http.StatusOK, alerts)
}

func (a *API) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	al, ok, err := a.store.AlertByID(r.Context(), id)
	if err != nil {
		a.internalError(w, r, err, "get alert", "id", id)
		return
	}
	if !ok {
		a.respondError(w, http.StatusNotFound, "alert not found")
		return
	}
	a.respondJSON(w, http.StatusOK, al)
}
