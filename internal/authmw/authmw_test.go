package authmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid token", "sekrit", "Bearer sekrit", http.StatusOK},
		{"wrong token", "sekrit", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "sekrit", "", http.StatusUnauthorized},
		{"wrong scheme", "sekrit", "Basic sekrit", http.StatusUnauthorized},
		{"bare token without scheme", "sekrit", "sekrit", http.StatusUnauthorized},
		{"empty expected token disables check", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := BearerToken(tt.token)(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Body.Len() == 0 {
				t.Error("401 response has no error body")
			}
		})
	}
}

func TestActorFromRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("X-Analyst", "  jdoe  ")

	act := ActorFromRequest(req)
	if act.Name != "jdoe" {
		t.Errorf("name = %q, want trimmed header value", act.Name)
	}
	if act.ClientIP != "203.0.113.9" {
		t.Errorf("client ip = %q, want host without port", act.ClientIP)
	}

	// Without a port the address passes through untouched.
	req.RemoteAddr = "203.0.113.9"
	req.Header.Del("X-Analyst")
	act = ActorFromRequest(req)
	if act.Name != "" || act.ClientIP != "203.0.113.9" {
		t.Errorf("actor = %+v", act)
	}
}
