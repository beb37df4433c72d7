package correlation

import (
	"strings"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

// Entity match weights. A user match is weighted higher than IP or device
// because a shared account is a stronger correlation signal than shared
// infrastructure.
const (
	userMatchWeight   = 2
	ipMatchWeight     = 1
	deviceMatchWeight = 1
)

// EntityOverlap returns the weighted count of matching entity attributes
// between two alerts. User and device compare case-insensitively, IP compares
// exactly. Location is collected for aggregation and risk heuristics but
// never scored here. The result is symmetric and at most 4.
func EntityOverlap(a, b *alert.Alert) int {
	score := 0

	if a.EntityUser != "" && b.EntityUser != "" && strings.EqualFold(a.EntityUser, b.EntityUser) {
		score += userMatchWeight
	}
	if a.EntityIP != "" && b.EntityIP != "" && a.EntityIP == b.EntityIP {
		score += ipMatchWeight
	}
	if a.EntityDevice != "" && b.EntityDevice != "" && strings.EqualFold(a.EntityDevice, b.EntityDevice) {
		score += deviceMatchWeight
	}

	return score
}
