// Package report renders incident reports as Markdown for export.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
)

const timeFormat = "2006-01-02 15:04:05"

// Markdown renders a full incident report: summary, score breakdown, related
// entities, alert timeline, and analyst notes. alerts must be the incident's
// member alerts; now supplies the generation timestamp.
func Markdown(inc *incident.Incident, alerts []*alert.Alert, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Incident Report: %s\n\n", inc.Title)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Incident ID**: %s\n", inc.ID)
	fmt.Fprintf(&b, "- **Status**: %s\n", titleCase(string(inc.Status)))
	fmt.Fprintf(&b, "- **Priority Score**: %.1f/100\n", inc.PriorityScore)
	fmt.Fprintf(&b, "- **Created**: %s UTC\n", inc.CreatedAt.UTC().Format(timeFormat))
	fmt.Fprintf(&b, "- **Last Updated**: %s UTC\n", inc.UpdatedAt.UTC().Format(timeFormat))
	fmt.Fprintf(&b, "- **Total Alerts**: %d\n\n", len(alerts))

	b.WriteString("## Priority Score Breakdown\n")
	if expl := inc.Explanation; expl != nil {
		fmt.Fprintf(&b, "- **Severity Score**: %g - %s\n", expl.SeverityScore, orNA(expl.SeverityReason))
		fmt.Fprintf(&b, "- **Entity Frequency Score**: %g - %s\n", expl.EntityFrequencyScore, orNA(expl.EntityReason))
		fmt.Fprintf(&b, "- **Risk Indicator Score**: %g\n", expl.RiskIndicatorScore)
		for _, reason := range expl.RiskReasons {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
	} else {
		b.WriteString("- **Severity Score**: 0 - N/A\n")
		b.WriteString("- **Entity Frequency Score**: 0 - N/A\n")
		b.WriteString("- **Risk Indicator Score**: 0\n")
	}

	b.WriteString("\n## Related Entities\n")
	writeEntitySection(&b, "Users", inc.Entities.Users)
	writeEntitySection(&b, "IP Addresses", inc.Entities.IPs)
	writeEntitySection(&b, "Devices", inc.Entities.Devices)
	writeEntitySection(&b, "Locations", inc.Entities.Locations)

	b.WriteString("\n## Alert Timeline\n")
	sorted := make([]*alert.Alert, len(alerts))
	copy(sorted, alerts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	for _, a := range sorted {
		ts := "Unknown"
		if a.HasTimestamp() {
			ts = a.Timestamp.Format(timeFormat)
		}
		fmt.Fprintf(&b, "### %s - %s\n", ts, a.Title)
		fmt.Fprintf(&b, "- **Source**: %s\n", a.Source)
		fmt.Fprintf(&b, "- **Category**: %s\n", a.Category)
		fmt.Fprintf(&b, "- **Severity**: %s\n", titleCase(string(a.Severity)))
		if a.Description != "" {
			fmt.Fprintf(&b, "- **Description**: %s\n", a.Description)
		}
		b.WriteString("\n")
	}

	if inc.Notes != "" {
		fmt.Fprintf(&b, "## Analyst Notes\n%s\n", inc.Notes)
	}
	if inc.Evidence != "" {
		fmt.Fprintf(&b, "\n## Evidence\n%s\n", inc.Evidence)
	}

	fmt.Fprintf(&b, "\n---\n*Report generated on %s UTC*\n", now.UTC().Format(timeFormat))
	return b.String()
}

func writeEntitySection(b *strings.Builder, heading string, values []string) {
	fmt.Fprintf(b, "### %s (%d)\n", heading, len(values))
	for _, v := range values {
		fmt.Fprintf(b, "- %s\n", v)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
