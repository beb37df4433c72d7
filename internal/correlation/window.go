package correlation

import (
	"time"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

// WithinWindow reports whether the absolute difference between the two alert
// timestamps is at most window. An alert with no timestamp is always within
// the window: untimed alerts must never be excluded on time grounds alone.
func WithinWindow(a, b *alert.Alert, window time.Duration) bool {
	if !a.HasTimestamp() || !b.HasTimestamp() {
		return true
	}

	diff := a.Timestamp.Sub(b.Timestamp)
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}
