package triage

import (
	"context"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
)

// CountReader is the read-only query capability the scorer needs against the
// full stored alert population. Both methods count over all stored alerts,
// not just the group being scored, so the scorer stays testable with a fake.
type CountReader interface {
	// CountAlertsByEntity returns how many stored alerts carry exactly
	// this value for the given entity type.
	CountAlertsByEntity(ctx context.Context, typ alert.EntityType, value string) (int, error)

	// CountDistinctUsersForIP returns the number of distinct non-empty
	// users ever seen together with this IP.
	CountDistinctUsersForIP(ctx context.Context, ip string) (int, error)
}
