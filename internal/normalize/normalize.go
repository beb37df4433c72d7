// Package normalize converts raw security alert payloads in several vendor
// formats into the unified alert schema.
//
// Supported formats:
//   - Microsoft Defender alerts
//   - Azure AD sign-in / risk detection alerts
//   - Generic JSON or CSV with field mapping
package normalize

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

// SourceType identifies a known alert format.
type SourceType string

const (
	SourceDefender SourceType = "defender"
	SourceAzureAD  SourceType = "azure_ad"
	SourceGeneric  SourceType = "generic"
)

// fieldMapping lists, in priority order, the payload paths tried for each
// unified field. Paths may be dotted for nested objects.
type fieldMapping struct {
	externalID []string
	title      []string
	desc       []string
	severity   []string
	category   []string
	timestamp  []string
	user       []string
	ip         []string
	device     []string
	location   []string
}

var fieldMappings = map[SourceType]fieldMapping{
	SourceDefender: {
		externalID: []string{"alertId", "id", "AlertId"},
		title:      []string{"title", "alertTitle", "Title"},
		desc:       []string{"description", "alertDescription", "Description"},
		severity:   []string{"severity", "alertSeverity", "Severity"},
		category:   []string{"category", "alertCategory", "Category"},
		timestamp:  []string{"createdDateTime", "timestamp", "detectionTime", "CreatedDateTime"},
		user:       []string{"userPrincipalName", "accountName", "user", "User", "userEmail"},
		ip:         []string{"ipAddress", "sourceIp", "clientIp", "IpAddress"},
		device:     []string{"deviceName", "machineName", "computerName", "DeviceName"},
		location:   []string{"location", "country", "city", "Location"},
	},
	SourceAzureAD: {
		externalID: []string{"id", "correlationId"},
		title:      []string{"riskEventType", "riskType"},
		desc:       []string{"additionalInfo", "riskDetail"},
		severity:   []string{"riskLevel", "riskState"},
		category:   []string{"riskEventType", "detectionTimingType"},
		timestamp:  []string{"activityDateTime", "detectedDateTime"},
		user:       []string{"userPrincipalName", "userDisplayName"},
		ip:         []string{"ipAddress"},
		device:     []string{"deviceDetail.displayName", "deviceDetail.deviceId"},
		location:   []string{"location.city", "location.countryOrRegion"},
	},
	SourceGeneric: {
		externalID: []string{"id", "alert_id", "alertId", "ID"},
		title:      []string{"title", "name", "alert_name", "Title"},
		desc:       []string{"description", "details", "message", "Description"},
		severity:   []string{"severity", "priority", "risk_level", "Severity"},
		category:   []string{"category", "type", "alert_type", "Category"},
		timestamp:  []string{"timestamp", "time", "date", "created_at", "Timestamp"},
		user:       []string{"user", "username", "user_email", "account", "User"},
		ip:         []string{"ip", "ip_address", "source_ip", "client_ip", "IP"},
		device:     []string{"device", "machine", "hostname", "computer", "Device"},
		location:   []string{"location", "country", "region", "Location"},
	},
}

// severityMappings folds vendor severity vocabularies into the unified enum.
var severityMappings = map[string]alert.Severity{
	// Microsoft Defender
	"informational": alert.SeverityLow,
	"low":           alert.SeverityLow,
	"medium":        alert.SeverityMedium,
	"high":          alert.SeverityHigh,
	"critical":      alert.SeverityCritical,
	// Numeric
	"1": alert.SeverityLow,
	"2": alert.SeverityMedium,
	"3": alert.SeverityHigh,
	"4": alert.SeverityCritical,
	// Azure AD risk levels
	"none":        alert.SeverityLow,
	"hidden":      alert.SeverityLow,
	"elevated":    alert.SeverityMedium,
	"significant": alert.SeverityHigh,
	"severe":      alert.SeverityCritical,
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// DetectSource guesses the format of a payload from its fields.
func DetectSource(payload []byte) SourceType {
	if gjson.GetBytes(payload, "alertId").Exists() || gjson.GetBytes(payload, "detectionSource").Exists() {
		return SourceDefender
	}
	if gjson.GetBytes(payload, "riskEventType").Exists() || gjson.GetBytes(payload, "riskLevel").Exists() {
		return SourceAzureAD
	}
	source := strings.ToLower(gjson.GetBytes(payload, "source").String())
	if strings.Contains(source, "defender") {
		return SourceDefender
	}
	if strings.Contains(source, "azure") || strings.Contains(source, "aad") {
		return SourceAzureAD
	}
	return SourceGeneric
}

// Alert normalizes a single JSON payload. sourceHint, when non-empty, skips
// format detection. Missing severities default to medium and missing
// timestamps to the current time so downstream scoring always has values.
func Alert(payload []byte, sourceHint SourceType) *alert.Alert {
	return normalizeAt(payload, sourceHint, time.Now)
}

func normalizeAt(payload []byte, sourceHint SourceType, now func() time.Time) *alert.Alert {
	sourceType := sourceHint
	if sourceType == "" {
		sourceType = DetectSource(payload)
	}
	mapping, ok := fieldMappings[sourceType]
	if !ok {
		mapping = fieldMappings[SourceGeneric]
	}

	externalID := findField(payload, mapping.externalID)
	if externalID == "" {
		externalID = autoExternalID(payload)
	}

	title := findField(payload, mapping.title)
	if title == "" {
		title = "Unknown Alert"
	}
	category := findField(payload, mapping.category)
	if category == "" {
		category = "Unknown"
	}

	sourceName := gjson.GetBytes(payload, "source").String()
	if sourceName == "" {
		sourceName = displayName(sourceType)
	}

	return &alert.Alert{
		ExternalID:     externalID,
		Source:         sourceName,
		Category:       category,
		Severity:       NormalizeSeverity(findField(payload, mapping.severity)),
		Title:          title,
		Description:    findField(payload, mapping.desc),
		EntityUser:     findField(payload, mapping.user),
		EntityIP:       findField(payload, mapping.ip),
		EntityDevice:   findField(payload, mapping.device),
		EntityLocation: findField(payload, mapping.location),
		Timestamp:      parseTimestamp(findField(payload, mapping.timestamp), now),
		RawPayload:     string(payload),
	}
}

// NormalizeSeverity folds a raw severity string into the unified enum,
// defaulting to medium when unknown or absent.
func NormalizeSeverity(raw string) alert.Severity {
	if raw == "" {
		return alert.SeverityMedium
	}
	if sev, ok := severityMappings[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return sev
	}
	return alert.SeverityMedium
}

// ParseUpload parses uploaded file content by extension: .csv as CSV, all
// else as JSON.
func ParseUpload(content []byte, filename string) ([]*alert.Alert, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return ParseCSV(content)
	}
	return ParseJSON(content)
}

// ParseJSON accepts a single alert object, a bare array, or a Microsoft
// Graph style envelope ("value" or "alerts" key).
func ParseJSON(content []byte) ([]*alert.Alert, error) {
	if !gjson.ValidBytes(content) {
		return nil, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(content)

	switch {
	case doc.IsArray():
		return normalizeList(doc.Array()), nil
	case doc.IsObject():
		if v := doc.Get("value"); v.IsArray() {
			return normalizeList(v.Array()), nil
		}
		if v := doc.Get("alerts"); v.IsArray() {
			return normalizeList(v.Array()), nil
		}
		return []*alert.Alert{Alert([]byte(doc.Raw), "")}, nil
	default:
		return nil, fmt.Errorf("JSON payload must be an object or array")
	}
}

// ParseCSV reads a header row and normalizes each record through the generic
// field mapping.
func ParseCSV(content []byte) ([]*alert.Alert, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	var out []*alert.Alert
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		payload, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode CSV row: %w", err)
		}
		out = append(out, Alert(payload, ""))
	}
	return out, nil
}

func normalizeList(items []gjson.Result) []*alert.Alert {
	out := make([]*alert.Alert, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		out = append(out, Alert([]byte(item.Raw), ""))
	}
	return out
}

// findField tries each path in order and returns the first present,
// non-empty value as a string.
func findField(payload []byte, paths []string) string {
	for _, path := range paths {
		v := gjson.GetBytes(payload, path)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func parseTimestamp(raw string, now func() time.Time) time.Time {
	if raw == "" {
		return now().UTC()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now().UTC()
}

// autoExternalID derives a stable identifier from the payload when the
// source provides none.
func autoExternalID(payload []byte) string {
	h := fnv.New64a()
	h.Write(payload)
	return fmt.Sprintf("auto-%08d", h.Sum64()%1e8)
}

func displayName(t SourceType) string {
	switch t {
	case SourceDefender:
		return "Defender"
	case SourceAzureAD:
		return "Azure Ad"
	default:
		return "Generic"
	}
}
