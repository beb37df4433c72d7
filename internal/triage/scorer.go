package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

// Explanation is the structured breakdown persisted alongside every priority
// score. Field names are part of the API contract.
type Explanation struct {
	SeverityScore        float64  `json:"severity_score"`
	SeverityReason       string   `json:"severity_reason"`
	EntityFrequencyScore float64  `json:"entity_frequency_score"`
	EntityReason         string   `json:"entity_reason"`
	RiskIndicatorScore   float64  `json:"risk_indicator_score"`
	RiskReasons          []string `json:"risk_reasons"`
	TotalScore           float64  `json:"total_score"`
	AlertCount           int      `json:"alert_count"`
}

// Scorer computes priority scores for alert groups. It holds no mutable
// state; a single Scorer is safe for concurrent use as long as the
// CountReader is.
type Scorer struct {
	counts CountReader
	cfg    Config
}

// NewScorer creates a scorer backed by the given count queries.
func NewScorer(counts CountReader, cfg Config) *Scorer {
	return &Scorer{counts: counts, cfg: cfg}
}

// Score computes the priority score and explanation for an alert group with
// its aggregated entities. The severity component is uncapped; the frequency
// and risk components are clamped independently. The total is the plain sum
// and is deliberately never clamped, so extreme inputs can exceed 100.
func (s *Scorer) Score(ctx context.Context, alerts []*alert.Alert, ents alert.Entities) (float64, *Explanation, error) {
	severityScore, severityReason := s.severityScore(alerts)

	freqScore, freqReason, err := s.frequencyScore(ctx, ents)
	if err != nil {
		return 0, nil, fmt.Errorf("entity frequency component: %w", err)
	}

	riskScore, riskReasons, err := s.riskScore(ctx, alerts, ents)
	if err != nil {
		return 0, nil, fmt.Errorf("risk indicator component: %w", err)
	}

	total := severityScore + freqScore + riskScore

	return total, &Explanation{
		SeverityScore:        severityScore,
		SeverityReason:       severityReason,
		EntityFrequencyScore: freqScore,
		EntityReason:         freqReason,
		RiskIndicatorScore:   riskScore,
		RiskReasons:          riskReasons,
		TotalScore:           total,
		AlertCount:           len(alerts),
	}, nil
}

// severityScore is the base score of the highest-severity alert plus a
// per-alert bonus for criticals and highs. The bonus applies even for single
// occurrences; the reason only mentions counts above one.
func (s *Scorer) severityScore(alerts []*alert.Alert) (float64, string) {
	if len(alerts) == 0 {
		return 0, "No alerts"
	}

	maxAlert := alerts[0]
	for _, a := range alerts[1:] {
		if s.cfg.SeverityBase[a.Severity] > s.cfg.SeverityBase[maxAlert.Severity] {
			maxAlert = a
		}
	}
	base := s.cfg.SeverityBase[maxAlert.Severity]

	var criticalCount, highCount int
	for _, a := range alerts {
		switch a.Severity {
		case alert.SeverityCritical:
			criticalCount++
		case alert.SeverityHigh:
			highCount++
		}
	}

	bonus := float64(criticalCount)*s.cfg.CriticalBonus + float64(highCount)*s.cfg.HighBonus

	reason := fmt.Sprintf("Highest severity: %s", maxAlert.Severity)
	if criticalCount > 1 {
		reason += fmt.Sprintf(", %d critical alerts (+%g)", criticalCount, float64(criticalCount)*s.cfg.CriticalBonus)
	}
	if highCount > 1 {
		reason += fmt.Sprintf(", %d high alerts (+%g)", highCount, float64(highCount)*s.cfg.HighBonus)
	}

	return base + bonus, reason
}

// frequencyScore rewards entity values that recur across the whole stored
// alert population. Locations are aggregated but never counted here.
func (s *Scorer) frequencyScore(ctx context.Context, ents alert.Entities) (float64, string, error) {
	var score float64
	var reasons []string

	for _, user := range ents.Users {
		count, err := s.counts.CountAlertsByEntity(ctx, alert.EntityUser, user)
		if err != nil {
			return 0, "", err
		}
		if count >= s.cfg.FrequencyThreshold {
			score += s.cfg.UserFrequencyBonus
			reasons = append(reasons, fmt.Sprintf("User '%s' in %d alerts", user, count))
		}
	}

	for _, ip := range ents.IPs {
		count, err := s.counts.CountAlertsByEntity(ctx, alert.EntityIP, ip)
		if err != nil {
			return 0, "", err
		}
		if count >= s.cfg.FrequencyThreshold {
			score += s.cfg.IPFrequencyBonus
			reasons = append(reasons, fmt.Sprintf("IP '%s' in %d alerts", ip, count))
		}
	}

	for _, device := range ents.Devices {
		count, err := s.counts.CountAlertsByEntity(ctx, alert.EntityDevice, device)
		if err != nil {
			return 0, "", err
		}
		if count >= s.cfg.FrequencyThreshold {
			score += s.cfg.DeviceFrequencyBonus
			reasons = append(reasons, fmt.Sprintf("Device '%s' in %d alerts", device, count))
		}
	}

	reason := "No frequent entities"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return min(score, s.cfg.FrequencyCap), reason, nil
}

// riskScore evaluates the heuristic risk indicators. Each indicator
// contributes additively before the component cap.
func (s *Scorer) riskScore(ctx context.Context, alerts []*alert.Alert, ents alert.Entities) (float64, []string, error) {
	var score float64
	reasons := []string{}

	// Shared IP: one address seen with many distinct users.
	for _, ip := range ents.IPs {
		users, err := s.counts.CountDistinctUsersForIP(ctx, ip)
		if err != nil {
			return 0, nil, err
		}
		if users > s.cfg.SharedIPUserThreshold {
			score += s.cfg.SharedIPBonus
			reasons = append(reasons, fmt.Sprintf("IP %s used by %d different users", ip, users))
		}
	}

	// Known-bad category, counted once no matter how many alerts match.
	for _, a := range alerts {
		if a.Category == "" {
			continue
		}
		if s.suspiciousCategory(a.Category) {
			score += s.cfg.SuspiciousCategoryBonus
			reasons = append(reasons, fmt.Sprintf("High-risk category: %s", a.Category))
			break
		}
	}

	// Impossible-travel proxy: one user, several locations, tight time span.
	// Alerts without timestamps are ignored for the span.
	if len(ents.Locations) > 1 && len(ents.Users) == 1 {
		if span, ok := timestampSpan(alerts); ok && span < s.cfg.TravelWindow {
			score += s.cfg.TravelBonus
			reasons = append(reasons, fmt.Sprintf("Possible impossible travel: user %s in [%s] within %.1fh",
				ents.Users[0], strings.Join(ents.Locations, ", "), span.Hours()))
		}
	}

	// Repeated failed/blocked actions in alert titles.
	var failureCount int
	for _, a := range alerts {
		if s.titleHasFailureKeyword(a.Title) {
			failureCount++
		}
	}
	if failureCount >= s.cfg.FailureThreshold {
		score += s.cfg.FailureBonus
		reasons = append(reasons, fmt.Sprintf("%d failed/blocked actions detected", failureCount))
	}

	// Off-hours activity: a strict majority of timestamps outside the
	// working window.
	var offHours int
	for _, a := range alerts {
		if !a.HasTimestamp() {
			continue
		}
		hour := a.Timestamp.Hour()
		if hour < s.cfg.OffHoursStart || hour > s.cfg.OffHoursEnd {
			offHours++
		}
	}
	if 2*offHours > len(alerts) {
		score += s.cfg.OffHoursBonus
		reasons = append(reasons, fmt.Sprintf("%d/%d alerts during off-hours", offHours, len(alerts)))
	}

	return min(score, s.cfg.RiskCap), reasons, nil
}

func (s *Scorer) suspiciousCategory(category string) bool {
	lowered := strings.ToLower(category)
	for _, bad := range s.cfg.SuspiciousCategories {
		if lowered == bad {
			return true
		}
	}
	return false
}

func (s *Scorer) titleHasFailureKeyword(title string) bool {
	if title == "" {
		return false
	}
	lowered := strings.ToLower(title)
	for _, kw := range s.cfg.FailureKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// timestampSpan returns max-min over the alerts that have timestamps.
// ok is false when no alert has one.
func timestampSpan(alerts []*alert.Alert) (time.Duration, bool) {
	var earliest, latest time.Time
	found := false
	for _, a := range alerts {
		if !a.HasTimestamp() {
			continue
		}
		if !found || a.Timestamp.Before(earliest) {
			earliest = a.Timestamp
		}
		if !found || a.Timestamp.After(latest) {
			latest = a.Timestamp
		}
		found = true
	}
	if !found {
		return 0, false
	}
	return latest.Sub(earliest), true
}
