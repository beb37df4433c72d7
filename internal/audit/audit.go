// Package audit defines the audit trail records written for key actions:
// data imports, incident updates, re-correlations, and report exports.
package audit

import "time"

// Actor identifies who performed an audited action. Name defaults to
// "analyst" in the stores until real user accounts exist.
type Actor struct {
	Name     string
	ClientIP string
}

// Entry is one audit trail record. Details holds free-form action context
// and is persisted as JSON.
type Entry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	Actor      string         `json:"actor"`
	ClientIP   string         `json:"client_ip,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Actions recorded by the service.
const (
	ActionDataImport   = "data_import"
	ActionRecorrelate  = "recorrelate"
	ActionStatusChange = "status_change"
	ActionReportExport = "report_export"
)
