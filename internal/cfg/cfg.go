// Package cfg holds the application-level configuration surface: ports,
// storage, correlation tuning, notification and summarizer settings.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds application-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int

	DatabaseURL string

	WindowHours      int
	OverlapThreshold int

	AuthToken string

	NotifyThreshold float64
	SlackWebhookURL string

	ClaudeAPIKey string
	ClaudeModel  string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.IntVar(&c.WindowHours, "window-hours", 1, "correlation time window in hours (> 0)")
	fs.IntVar(&c.OverlapThreshold, "overlap-threshold", 1, "minimum entity overlap score to correlate two alerts (>= 1)")
	fs.StringVar(&c.AuthToken, "auth-token", "", "bearer token required on mutating API routes (empty = no auth)")
	fs.Float64Var(&c.NotifyThreshold, "notify-threshold", 70, "minimum incident priority score that triggers a notification")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for high-priority incident notifications")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the incident summarizer (empty = summaries disabled)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model used for incident summaries")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.WindowHours <= 0 {
		errs = append(errs, fmt.Errorf("invalid WINDOW_HOURS %d (must be > 0)", c.WindowHours))
	}
	if c.OverlapThreshold < 1 {
		errs = append(errs, fmt.Errorf("invalid OVERLAP_THRESHOLD %d (must be >= 1)", c.OverlapThreshold))
	}
	if c.NotifyThreshold < 0 {
		errs = append(errs, fmt.Errorf("invalid NOTIFY_THRESHOLD %g (must be >= 0)", c.NotifyThreshold))
	}

	// The summarizer is optional, but a key without a model is a broken setup
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
