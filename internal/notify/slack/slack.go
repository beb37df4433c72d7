// Package slack sends high-priority incident notifications to Slack via
// incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
)

const (
	maxReasonLen = 3000
	httpTimeout  = 10 * time.Second
)

// Notifier posts incident notifications to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Notify is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Notify posts an incident notification to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Notify(ctx context.Context, inc *incident.Incident) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(inc))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(inc *incident.Incident) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(inc),
			{"type": "divider"},
			fieldsBlock(inc),
			{"type": "divider"},
			breakdownBlock(inc),
			{"type": "divider"},
			contextBlock(inc),
		},
	}
}

func headerBlock(inc *incident.Incident) map[string]any {
	text := fmt.Sprintf("%s High-Priority Incident: %s", priorityEmoji(inc.PriorityScore), inc.Title)
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(inc *incident.Incident) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Priority:* %.1f", inc.PriorityScore),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Status:* %s", inc.Status),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Alerts:* %d", len(inc.AlertIDs)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Users:* %d", len(inc.Entities.Users)),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func breakdownBlock(inc *incident.Incident) map[string]any {
	var lines []string
	if expl := inc.Explanation; expl != nil {
		lines = append(lines, expl.SeverityReason, expl.EntityReason)
		lines = append(lines, expl.RiskReasons...)
	}
	text := truncate(strings.Join(lines, "\n"), maxReasonLen)
	if text == "" {
		text = "_No score breakdown available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Score Breakdown*\n\n%s", text),
		},
	}
}

func contextBlock(inc *incident.Incident) map[string]any {
	ts := inc.UpdatedAt
	if ts.IsZero() {
		ts = inc.CreatedAt
	}

	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("triagehub • incident %s • %s", inc.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func priorityEmoji(score float64) string {
	switch {
	case score >= 80:
		return "\U0001f534" // red circle
	case score >= 60:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
