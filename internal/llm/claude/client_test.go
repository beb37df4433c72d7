package claude

import (
	"strings"
	"testing"
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/triage"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	inc := &incident.Incident{
		Title:         "Critical Credential Access Incident (2 alerts)",
		Status:        incident.StatusNew,
		PriorityScore: 82.5,
		Entities: alert.Entities{
			Users:   []string{"jdoe@corp.example"},
			IPs:     []string{"10.0.0.5", "203.0.113.9"},
			Devices: []string{"WS-001"},
		},
		Explanation: &triage.Explanation{
			SeverityReason: "Highest severity: critical",
			EntityReason:   "User 'jdoe@corp.example' in 4 alerts",
			RiskReasons:    []string{"IP 10.0.0.5 used by 3 different users"},
		},
	}
	alerts := []*alert.Alert{
		{
			Title: "Failed sign-in burst", Source: "Azure AD", Category: "Credential Access",
			Severity: alert.SeverityCritical, Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		},
		{Title: "Anomalous token issued", Source: "Azure AD", Category: "Credential Access", Severity: alert.SeverityHigh},
	}

	prompt := buildPrompt(inc, alerts)

	for _, want := range []string{
		"Incident: Critical Credential Access Incident (2 alerts)",
		"Status: new, priority score 82.5",
		"Severity: Highest severity: critical",
		"Entity frequency: User 'jdoe@corp.example' in 4 alerts",
		"Risk indicator: IP 10.0.0.5 used by 3 different users",
		"Users: jdoe@corp.example",
		"IPs: 10.0.0.5, 203.0.113.9",
		"Devices: WS-001",
		"Alerts (2):",
		"- [2026-03-14 09:00] Failed sign-in burst (Azure AD, Credential Access, critical)",
		"- [unknown time] Anomalous token issued (Azure AD, Credential Access, high)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n---\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_NoExplanation(t *testing.T) {
	t.Parallel()

	inc := &incident.Incident{Title: "Unknown Incident", Status: incident.StatusNew}
	prompt := buildPrompt(inc, nil)

	if strings.Contains(prompt, "Severity:") || strings.Contains(prompt, "Risk indicator:") {
		t.Errorf("prompt should skip the missing breakdown:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Alerts (0):") {
		t.Errorf("prompt missing alert count:\n%s", prompt)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	s := New("sk-test", "claude-sonnet-4-20250514")
	if s == nil {
		t.Fatal("New returned nil")
	}
	if string(s.model) != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", s.model)
	}
}
