package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Backend gateway
	BackendURL          string
	BackendTimeout      time.Duration
	BackendReadRetries  int
	BackendRetryBackoff time.Duration

	// Redis (optional, enables cross-instance websocket fan-out)
	RedisURL string

	// Session tokens
	JWTSecret  string
	SessionTTL time.Duration

	// Session defaults
	DefaultStudentID     string
	DefaultQuizQuestions int
	MaxQuizQuestions     int
	MaxUploadBytes       int64

	// Frontend
	FrontendURL string

	// Logging
	LogFilePath string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		BackendURL:           getEnvOrDefault("BACKEND_URL", "http://127.0.0.1:8000"),
		BackendTimeout:       time.Duration(getEnvAsIntOrDefault("BACKEND_TIMEOUT_SECONDS", 120)) * time.Second,
		BackendReadRetries:   getEnvAsIntOrDefault("BACKEND_READ_RETRIES", 1),
		BackendRetryBackoff:  time.Duration(getEnvAsIntOrDefault("BACKEND_RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		SessionTTL:           time.Duration(getEnvAsIntOrDefault("SESSION_TTL_MINUTES", 120)) * time.Minute,
		DefaultStudentID:     getEnvOrDefault("DEFAULT_STUDENT_ID", "student_1"),
		DefaultQuizQuestions: getEnvAsIntOrDefault("DEFAULT_QUIZ_QUESTIONS", 5),
		MaxQuizQuestions:     getEnvAsIntOrDefault("MAX_QUIZ_QUESTIONS", 20),
		MaxUploadBytes:       int64(getEnvAsIntOrDefault("MAX_UPLOAD_MB", 25)) << 20,
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		LogFilePath:          getEnvOrDefault("LOG_FILE_PATH", "logs/session.log"),
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// BackendReadBudget is the longest a retried backend read can take: every
// attempt timing out plus the backoff between attempts.
func (c *Config) BackendReadBudget() time.Duration {
	retries := c.BackendReadRetries
	if retries < 0 {
		retries = 0
	}
	backoff := c.BackendRetryBackoff * time.Duration((1<<uint(retries))-1)
	return c.BackendTimeout*time.Duration(retries+1) + backoff
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
