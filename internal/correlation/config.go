package correlation

import "time"

// Config holds the correlation tunables.
type Config struct {
	// WindowHours is the maximum time difference, in hours, for two alerts
	// to be considered temporally related.
	WindowHours int

	// OverlapThreshold is the minimum entity overlap score for two alerts
	// to correlate.
	OverlapThreshold int
}

// DefaultConfig returns the production correlation parameters.
func DefaultConfig() Config {
	return Config{
		WindowHours:      1,
		OverlapThreshold: 1,
	}
}

// Window returns the correlation window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}
