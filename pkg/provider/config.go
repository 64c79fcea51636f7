package provider

import "time"

// Config holds the load policy of a provider.
type Config struct {
	LoadTimeout  time.Duration // Upper bound for a whole load, both sources and retries included
	MaxRetries   int           // Retries per source after the first attempt; network failures only
	RetryBackoff time.Duration // Backoff between attempts, doubled after each retry
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LoadTimeout:  30 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
	}
}
