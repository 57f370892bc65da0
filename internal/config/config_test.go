package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}
			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}
			assert.Equal(t, tc.expected, getEnvAsIntOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	t.Setenv("NONEXISTENT_REQUIRED_VAR", "")
	assert.Panics(t, func() { mustGetEnv("NONEXISTENT_REQUIRED_VAR") })
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BACKEND_URL", "")
	t.Setenv("DEFAULT_STUDENT_ID", "")
	t.Setenv("DEFAULT_QUIZ_QUESTIONS", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("SESSION_TTL_MINUTES", "")

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.BackendURL)
	assert.Equal(t, "student_1", cfg.DefaultStudentID)
	assert.Equal(t, 5, cfg.DefaultQuizQuestions)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 120*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, time.Second, cfg.BackendRetryBackoff)
}

func TestBackendReadBudget(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		retries  int
		backoff  time.Duration
		expected time.Duration
	}{
		{"no retries", 120 * time.Second, 0, time.Second, 120 * time.Second},
		{"one retry", 120 * time.Second, 1, time.Second, 241 * time.Second},
		{"two retries", 10 * time.Second, 2, time.Second, 33 * time.Second},
		{"negative retries", 10 * time.Second, -1, time.Second, 10 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{BackendTimeout: tc.timeout, BackendReadRetries: tc.retries, BackendRetryBackoff: tc.backoff}
			assert.Equal(t, tc.expected, cfg.BackendReadBudget())
		})
	}
}
