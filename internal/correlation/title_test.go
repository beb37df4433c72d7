package correlation

import (
	"testing"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

func TestGenerateTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		alerts []*alert.Alert
		want   string
	}{
		{
			name:   "empty group",
			alerts: nil,
			want:   "Unknown Incident",
		},
		{
			name: "single category",
			alerts: []*alert.Alert{
				{Severity: alert.SeverityHigh, Category: "Phishing"},
			},
			want: "High Phishing Incident",
		},
		{
			name: "single category keeps original casing",
			alerts: []*alert.Alert{
				{Severity: alert.SeverityLow, Category: "credential access"},
				{Severity: alert.SeverityLow, Category: "credential access"},
			},
			want: "Low credential access Incident",
		},
		{
			name: "multiple categories count alerts not categories",
			alerts: []*alert.Alert{
				{Severity: alert.SeverityMedium, Category: "Phishing"},
				{Severity: alert.SeverityCritical, Category: "Malware"},
				{Severity: alert.SeverityLow, Category: "Phishing"},
			},
			want: "Critical Multi-Category Incident (3 alerts)",
		},
		{
			name: "no categories",
			alerts: []*alert.Alert{
				{Severity: alert.SeverityMedium},
				{Severity: alert.SeverityMedium},
			},
			want: "Medium Security Incident",
		},
		{
			name: "severity tie keeps first",
			alerts: []*alert.Alert{
				{Severity: alert.SeverityHigh, Category: "A"},
				{Severity: alert.SeverityHigh, Category: "B"},
			},
			want: "High Multi-Category Incident (2 alerts)",
		},
		{
			name: "empty categories are skipped",
			alerts: []*alert.Alert{
				{Severity: alert.SeverityHigh, Category: ""},
				{Severity: alert.SeverityLow, Category: "Malware"},
			},
			want: "High Malware Incident",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := GenerateTitle(tt.alerts); got != tt.want {
				t.Errorf("GenerateTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
