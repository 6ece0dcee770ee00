package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Pass              time.Duration // Deadline of a whole reconciliation pass
	Ready             time.Duration // Wait for master quorum after the master tier
	ReadyPoll         time.Duration // Poll interval of the quorum wait
	RetryMaxAttempts  int           // Maximum number of retries of a transient platform error
	RetryInitialDelay time.Duration // Initial delay between retries
	RetryMaxDelay     time.Duration // Cap of the retry delay
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - ESTOPO_TIMEOUT_PASS (default: 30m)
//   - ESTOPO_TIMEOUT_READY (default: 10m)
//   - ESTOPO_TIMEOUT_READY_POLL (default: 5s)
//   - ESTOPO_RETRY_MAX_ATTEMPTS (default: 4)
//   - ESTOPO_RETRY_INITIAL_DELAY (default: 1s)
//   - ESTOPO_RETRY_MAX_DELAY (default: 15s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Pass:              parseDuration("ESTOPO_TIMEOUT_PASS", 30*time.Minute),
		Ready:             parseDuration("ESTOPO_TIMEOUT_READY", 10*time.Minute),
		ReadyPoll:         parseDuration("ESTOPO_TIMEOUT_READY_POLL", 5*time.Second),
		RetryMaxAttempts:  parseInt("ESTOPO_RETRY_MAX_ATTEMPTS", 4),
		RetryInitialDelay: parseDuration("ESTOPO_RETRY_INITIAL_DELAY", 1*time.Second),
		RetryMaxDelay:     parseDuration("ESTOPO_RETRY_MAX_DELAY", 15*time.Second),
	}
}

// S3Credentials returns the object storage credentials from
// ESTOPO_S3_ACCESS_KEY and ESTOPO_S3_SECRET_KEY.
func S3Credentials() (accessKey, secretKey string) {
	return os.Getenv("ESTOPO_S3_ACCESS_KEY"), os.Getenv("ESTOPO_S3_SECRET_KEY")
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}

	return i
}
