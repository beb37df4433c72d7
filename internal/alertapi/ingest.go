package alertapi

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/authmw"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/demo"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/normalize"
)

const (
	maxUploadBytes   = 16 << 20 // 16 MiB
	defaultSeedCount = 40
	seedWindow       = 24 * time.Hour
)

// handleUpload ingests a JSON or CSV file of alerts. The file arrives either
// as multipart form data under the "file" field or as the raw request body
// with the filename in the ?filename query parameter.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	content, filename, ok := a.readUpload(w, r)
	if !ok {
		return
	}

	if !strings.HasSuffix(filename, ".json") && !strings.HasSuffix(filename, ".csv") {
		a.respondError(w, http.StatusBadRequest, "only JSON and CSV files are supported")
		return
	}

	alerts, err := normalize.ParseUpload(content, filename)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "failed to parse file: "+err.Error())
		return
	}
	if len(alerts) == 0 {
		a.respondError(w, http.StatusBadRequest, "no valid alerts found in file")
		return
	}

	summary, err := a.svc.Ingest(r.Context(), alerts, filename, authmw.ActorFromRequest(r))
	if err != nil {
		a.internalError(w, r, err, "ingest upload", "filename", filename)
		return
	}
	a.respondJSON(w, http.StatusOK, summary)
}

// handleSeed generates demo alerts and runs them through the normal
// ingestion path. ?count controls the batch size, ?seed makes it repeatable.
func (a *API) handleSeed(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", defaultSeedCount)
	seed := int64(queryInt(r, "seed", int(a.now().UnixNano()%1e9)))

	payloads, err := demo.NewGenerator(seed).Payloads(count, seedWindow)
	if err != nil {
		a.internalError(w, r, err, "generate demo data")
		return
	}

	alerts := make([]*alert.Alert, 0, len(payloads))
	for _, payload := range payloads {
		alerts = append(alerts, normalize.Alert(payload, normalize.SourceGeneric))
	}

	summary, err := a.svc.Ingest(r.Context(), alerts, "seed", authmw.ActorFromRequest(r))
	if err != nil {
		a.internalError(w, r, err, "ingest demo data")
		return
	}
	a.respondJSON(w, http.StatusOK, summary)
}

func (a *API) handleRecorrelate(w http.ResponseWriter, r *http.Request) {
	summary, err := a.svc.Recorrelate(r.Context(), authmw.ActorFromRequest(r))
	if err != nil {
		a.internalError(w, r, err, "recorrelate")
		return
	}
	a.respondJSON(w, http.StatusOK, summary)
}

func (a *API) readUpload(w http.ResponseWriter, r *http.Request) (content []byte, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			a.respondError(w, http.StatusBadRequest, `multipart upload requires a "file" field`)
			return nil, "", false
		}
		defer func() { _ = file.Close() }()

		content, err = io.ReadAll(file)
		if err != nil {
			a.respondError(w, http.StatusBadRequest, "read upload: "+err.Error())
			return nil, "", false
		}
		return content, strings.ToLower(header.Filename), true
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return nil, "", false
	}
	filename = strings.ToLower(r.URL.Query().Get("filename"))
	if filename == "" {
		filename = "upload.json"
	}
	return body, filename, true
}
