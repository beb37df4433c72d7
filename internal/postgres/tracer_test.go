package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestWithHTTPMethod_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithHTTPMethod(context.Background(), "POST")
	got := httpMethodFromContext(ctx)
	if got != "POST" {
		t.Errorf("httpMethodFromContext = %q, want %q", got, "POST")
	}
}

func TestWithHTTPMethod_Empty(t *testing.T) {
	t.Parallel()

	ctx := WithHTTPMethod(context.Background(), "")
	got := httpMethodFromContext(ctx)
	if got != "" {
		t.Errorf("httpMethodFromContext = %q, want empty", got)
	}
}

func TestRoutePatternFromContext_Missing(t *testing.T) {
	t.Parallel()

	if got := routePatternFromContext(context.Background()); got != "" {
		t.Errorf("routePatternFromContext = %q, want empty without chi", got)
	}
}

func TestSetQueryObserver(t *testing.T) {
	// Save and restore the global to avoid test pollution.
	defer SetQueryObserver(nil)

	called := false
	obs := QueryObserverFunc(func(_ context.Context, _, _, _ string, _ time.Duration) {
		called = true
	})

	SetQueryObserver(obs)
	got := getQueryObserver()
	if got == nil {
		t.Fatal("expected non-nil observer after Set")
	}
	got.ObserveQuery(context.Background(), "GET", "/test", "ok", time.Millisecond)
	if !called {
		t.Error("observer was not called")
	}

	SetQueryObserver(nil)
	got = getQueryObserver()
	if got != nil {
		t.Errorf("expected nil observer after Set(nil), got %v", got)
	}
}

func TestLoggingTracer_ObserverLabels(t *testing.T) {
	defer SetQueryObserver(nil)

	type observed struct {
		method, route, outcome string
		dur                    time.Duration
	}
	var got []observed
	SetQueryObserver(QueryObserverFunc(func(_ context.Context, method, route, outcome string, dur time.Duration) {
		got = append(got, observed{method, route, outcome, dur})
	}))

	tr := wrapQueryTracer(nil)

	ctx := WithHTTPMethod(context.Background(), "POST")
	ctx = tr.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	time.Sleep(time.Millisecond)
	tr.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	if len(got) != 1 {
		t.Fatalf("observer called %d times, want 1", len(got))
	}
	if got[0].method != "POST" {
		t.Errorf("method = %q, want POST", got[0].method)
	}
	// No chi route in the context; the label falls back.
	if got[0].route != "unknown" {
		t.Errorf("route = %q, want unknown", got[0].route)
	}
	if got[0].outcome != "ok" {
		t.Errorf("outcome = %q, want ok", got[0].outcome)
	}
	if got[0].dur <= 0 {
		t.Errorf("duration = %v, want > 0", got[0].dur)
	}
}

func TestLoggingTracer_ErrorOutcome(t *testing.T) {
	defer SetQueryObserver(nil)

	var outcomes []string
	SetQueryObserver(QueryObserverFunc(func(_ context.Context, _, _, outcome string, _ time.Duration) {
		outcomes = append(outcomes, outcome)
	}))

	tr := wrapQueryTracer(nil)
	ctx := tr.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	time.Sleep(time.Millisecond)
	tr.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: pgx.ErrNoRows})

	if len(outcomes) != 1 || outcomes[0] != "error" {
		t.Errorf("outcomes = %v, want [error]", outcomes)
	}
}
