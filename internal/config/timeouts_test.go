package config

import (
	"testing"
	"time"
)

var timeoutEnvVars = []string{
	"ESTOPO_TIMEOUT_PASS",
	"ESTOPO_TIMEOUT_READY",
	"ESTOPO_TIMEOUT_READY_POLL",
	"ESTOPO_RETRY_MAX_ATTEMPTS",
	"ESTOPO_RETRY_INITIAL_DELAY",
	"ESTOPO_RETRY_MAX_DELAY",
}

func clearTimeoutEnvVars(t *testing.T) {
	t.Helper()
	for _, v := range timeoutEnvVars {
		t.Setenv(v, "")
	}
}

func TestLoadTimeouts_Defaults(t *testing.T) {
	clearTimeoutEnvVars(t)

	timeouts := LoadTimeouts()

	if timeouts.Pass != 30*time.Minute {
		t.Errorf("Expected Pass default 30m, got %v", timeouts.Pass)
	}
	if timeouts.Ready != 10*time.Minute {
		t.Errorf("Expected Ready default 10m, got %v", timeouts.Ready)
	}
	if timeouts.ReadyPoll != 5*time.Second {
		t.Errorf("Expected ReadyPoll default 5s, got %v", timeouts.ReadyPoll)
	}
	if timeouts.RetryMaxAttempts != 4 {
		t.Errorf("Expected RetryMaxAttempts default 4, got %d", timeouts.RetryMaxAttempts)
	}
	if timeouts.RetryInitialDelay != 1*time.Second {
		t.Errorf("Expected RetryInitialDelay default 1s, got %v", timeouts.RetryInitialDelay)
	}
	if timeouts.RetryMaxDelay != 15*time.Second {
		t.Errorf("Expected RetryMaxDelay default 15s, got %v", timeouts.RetryMaxDelay)
	}
}

func TestLoadTimeouts_EnvVars(t *testing.T) {
	clearTimeoutEnvVars(t)

	t.Setenv("ESTOPO_TIMEOUT_PASS", "1h")
	t.Setenv("ESTOPO_TIMEOUT_READY", "90s")
	t.Setenv("ESTOPO_TIMEOUT_READY_POLL", "2s")
	t.Setenv("ESTOPO_RETRY_MAX_ATTEMPTS", "10")
	t.Setenv("ESTOPO_RETRY_INITIAL_DELAY", "250ms")
	t.Setenv("ESTOPO_RETRY_MAX_DELAY", "1m")

	timeouts := LoadTimeouts()

	if timeouts.Pass != time.Hour {
		t.Errorf("Expected Pass 1h, got %v", timeouts.Pass)
	}
	if timeouts.Ready != 90*time.Second {
		t.Errorf("Expected Ready 90s, got %v", timeouts.Ready)
	}
	if timeouts.ReadyPoll != 2*time.Second {
		t.Errorf("Expected ReadyPoll 2s, got %v", timeouts.ReadyPoll)
	}
	if timeouts.RetryMaxAttempts != 10 {
		t.Errorf("Expected RetryMaxAttempts 10, got %d", timeouts.RetryMaxAttempts)
	}
	if timeouts.RetryInitialDelay != 250*time.Millisecond {
		t.Errorf("Expected RetryInitialDelay 250ms, got %v", timeouts.RetryInitialDelay)
	}
	if timeouts.RetryMaxDelay != time.Minute {
		t.Errorf("Expected RetryMaxDelay 1m, got %v", timeouts.RetryMaxDelay)
	}
}

func TestLoadTimeouts_InvalidValues(t *testing.T) {
	clearTimeoutEnvVars(t)

	t.Setenv("ESTOPO_TIMEOUT_PASS", "soon")
	t.Setenv("ESTOPO_TIMEOUT_READY", "-5m")
	t.Setenv("ESTOPO_RETRY_MAX_ATTEMPTS", "many")

	timeouts := LoadTimeouts()

	if timeouts.Pass != 30*time.Minute {
		t.Errorf("Expected Pass to fall back to 30m, got %v", timeouts.Pass)
	}
	if timeouts.Ready != 10*time.Minute {
		t.Errorf("Expected Ready to fall back to 10m, got %v", timeouts.Ready)
	}
	if timeouts.RetryMaxAttempts != 4 {
		t.Errorf("Expected RetryMaxAttempts to fall back to 4, got %d", timeouts.RetryMaxAttempts)
	}
}

func TestS3Credentials(t *testing.T) {
	t.Setenv("ESTOPO_S3_ACCESS_KEY", "access")
	t.Setenv("ESTOPO_S3_SECRET_KEY", "secret")

	access, secret := S3Credentials()
	if access != "access" || secret != "secret" {
		t.Errorf("unexpected credentials %q/%q", access, secret)
	}
}
