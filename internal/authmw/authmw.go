// Package authmw provides HTTP middleware for bearer token authentication
// on mutating routes, plus actor extraction for the audit trail.
package authmw

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
)

// BearerToken returns middleware that validates the Authorization header
// contains a Bearer token matching the expected value. Comparison uses
// constant-time equality to prevent timing side-channel attacks.
// An empty expected token disables the check entirely.
func BearerToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error":"missing or malformed authorization header"}`, http.StatusUnauthorized)
				return
			}

			got := []byte(auth[len("Bearer "):])

			if subtle.ConstantTimeCompare(got, expected) != 1 {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ActorFromRequest builds the audit actor for a request. The analyst name
// comes from the X-Analyst header when set.
func ActorFromRequest(r *http.Request) audit.Actor {
	name := strings.TrimSpace(r.Header.Get("X-Analyst"))

	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	return audit.Actor{Name: name, ClientIP: host}
}
