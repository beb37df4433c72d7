package correlation

import (
	"fmt"
	"strings"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

// GenerateTitle derives a human-readable incident title from the member
// alerts. Ties on severity go to the first maximum in iteration order, and
// when exactly one category is present it keeps its original casing.
func GenerateTitle(alerts []*alert.Alert) string {
	if len(alerts) == 0 {
		return "Unknown Incident"
	}

	var categories []string
	seen := map[string]struct{}{}
	for _, a := range alerts {
		if a.Category == "" {
			continue
		}
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		categories = append(categories, a.Category)
	}

	maxAlert := alerts[0]
	for _, a := range alerts[1:] {
		if a.Severity.Rank() > maxAlert.Severity.Rank() {
			maxAlert = a
		}
	}
	severity := capitalize(string(maxAlert.Severity))

	switch {
	case len(categories) == 1:
		return fmt.Sprintf("%s %s Incident", severity, categories[0])
	case len(categories) > 1:
		return fmt.Sprintf("%s Multi-Category Incident (%d alerts)", severity, len(alerts))
	default:
		return fmt.Sprintf("%s Security Incident", severity)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
