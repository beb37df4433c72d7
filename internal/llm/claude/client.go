// Package claude generates analyst-facing incident summaries via the
// Anthropic API. The summarizer is optional; the service runs fully without
// an API key.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
)

const maxTokens = 1024

const systemPrompt = `You are a SOC analyst assistant. Summarize the security
incident below for a human analyst in 3-5 sentences: what happened, which
entities are involved, and what to check first. Be concrete, no preamble.`

// Summarizer calls the Anthropic Messages API to summarize an incident.
type Summarizer struct {
	client anthropic.Client
	model  anthropic.Model
}

// New returns a Summarizer using the given API key and model name.
func New(apiKey, model string) *Summarizer {
	return &Summarizer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Summarize produces a short narrative summary of the incident and its
// member alerts.
func (s *Summarizer) Summarize(ctx context.Context, inc *incident.Incident, alerts []*alert.Alert) (string, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(inc, alerts))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages.new: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return out, nil
}

func buildPrompt(inc *incident.Incident, alerts []*alert.Alert) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Incident: %s\n", inc.Title)
	fmt.Fprintf(&b, "Status: %s, priority score %.1f\n", inc.Status, inc.PriorityScore)
	if expl := inc.Explanation; expl != nil {
		fmt.Fprintf(&b, "Severity: %s\n", expl.SeverityReason)
		fmt.Fprintf(&b, "Entity frequency: %s\n", expl.EntityReason)
		for _, reason := range expl.RiskReasons {
			fmt.Fprintf(&b, "Risk indicator: %s\n", reason)
		}
	}
	if len(inc.Entities.Users) > 0 {
		fmt.Fprintf(&b, "Users: %s\n", strings.Join(inc.Entities.Users, ", "))
	}
	if len(inc.Entities.IPs) > 0 {
		fmt.Fprintf(&b, "IPs: %s\n", strings.Join(inc.Entities.IPs, ", "))
	}
	if len(inc.Entities.Devices) > 0 {
		fmt.Fprintf(&b, "Devices: %s\n", strings.Join(inc.Entities.Devices, ", "))
	}

	fmt.Fprintf(&b, "\nAlerts (%d):\n", len(alerts))
	for _, a := range alerts {
		ts := "unknown time"
		if a.HasTimestamp() {
			ts = a.Timestamp.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %s, %s)\n", ts, a.Title, a.Source, a.Category, a.Severity)
	}
	return b.String()
}
