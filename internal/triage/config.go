package triage

import (
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

// Config holds the scoring weights and thresholds. The zero value is not
// usable; start from DefaultConfig and override individual fields.
type Config struct {
	// SeverityBase maps each severity to the base score contributed by the
	// highest-severity alert in the group.
	SeverityBase map[alert.Severity]float64

	// CriticalBonus and HighBonus are added per critical/high alert in the
	// group, on top of the base score.
	CriticalBonus float64
	HighBonus     float64

	// FrequencyThreshold is the minimum number of stored alerts carrying an
	// entity value before that value earns a frequency bonus.
	FrequencyThreshold int

	// Per-type frequency bonuses.
	UserFrequencyBonus   float64
	IPFrequencyBonus     float64
	DeviceFrequencyBonus float64

	// FrequencyCap clamps the entity-frequency component.
	FrequencyCap float64

	// RiskCap clamps the risk-indicator component.
	RiskCap float64

	// SharedIPUserThreshold: an IP seen with strictly more distinct users
	// than this earns SharedIPBonus.
	SharedIPUserThreshold int
	SharedIPBonus         float64

	// SuspiciousCategories are matched case-insensitively against alert
	// categories; the first match earns SuspiciousCategoryBonus once.
	SuspiciousCategories    []string
	SuspiciousCategoryBonus float64

	// TravelWindow is the maximum timestamp span for the impossible-travel
	// heuristic (one user, several locations) to fire.
	TravelWindow time.Duration
	TravelBonus  float64

	// FailureKeywords are matched as case-insensitive substrings of alert
	// titles; FailureThreshold or more matching alerts earn FailureBonus.
	FailureKeywords  []string
	FailureThreshold int
	FailureBonus     float64

	// Off-hours activity: a timestamp hour before OffHoursStart or after
	// OffHoursEnd counts as off-hours; a strict majority earns OffHoursBonus.
	OffHoursStart int
	OffHoursEnd   int
	OffHoursBonus float64
}

// DefaultConfig returns the production scoring model.
func DefaultConfig() Config {
	return Config{
		SeverityBase: map[alert.Severity]float64{
			alert.SeverityCritical: 40,
			alert.SeverityHigh:     30,
			alert.SeverityMedium:   20,
			alert.SeverityLow:      10,
		},
		CriticalBonus:        5,
		HighBonus:            2,
		FrequencyThreshold:   3,
		UserFrequencyBonus:   10,
		IPFrequencyBonus:     8,
		DeviceFrequencyBonus: 5,
		FrequencyCap:         30,
		RiskCap:              30,

		SharedIPUserThreshold: 2,
		SharedIPBonus:         15,
		SuspiciousCategories: []string{
			"malware",
			"ransomware",
			"phishing",
			"credential theft",
			"lateral movement",
			"data exfiltration",
			"privilege escalation",
		},
		SuspiciousCategoryBonus: 10,
		TravelWindow:            2 * time.Hour,
		TravelBonus:             20,
		FailureKeywords:         []string{"failed", "blocked", "denied", "unauthorized"},
		FailureThreshold:        3,
		FailureBonus:            10,
		OffHoursStart:           6,
		OffHoursEnd:             20,
		OffHoursBonus:           5,
	}
}
