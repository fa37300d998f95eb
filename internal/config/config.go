package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort    string
	PublicBaseURL string
	SwaggerHost   string
	LogLevel      string

	// PocketBaseURL is empty when the site runs without a backend.
	PocketBaseURL     string
	PocketBaseTimeout time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	StaffPassword     string
	StaffPasswordHash string

	AuditDSN string

	CacheTTL       time.Duration
	WarmupInterval time.Duration
}

// DefaultSessionSecret is only good for local development.
const DefaultSessionSecret = "change-me"

// Load builds Config from environment with sensible defaults. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring .env: %v", err)
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		SwaggerHost:       os.Getenv("SWAGGER_HOST"),
		LogLevel:          strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		PocketBaseURL:     strings.TrimRight(os.Getenv("PB_URL"), "/"),
		PocketBaseTimeout: getEnvDuration("PB_REQUEST_TIMEOUT", 10*time.Second),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		SessionSecret:     getEnv("SESSION_SECRET", DefaultSessionSecret),
		SessionTTL:        getEnvDuration("SESSION_TTL", 14*24*time.Hour),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),
		// The staff secret used to live in a bundler variable; accept the old name as well.
		StaffPassword:     getEnv("SECRET_STAFF_PASSWORD", os.Getenv("VITE_SECRET_STAFF_PASSWORD")),
		StaffPasswordHash: os.Getenv("STAFF_PASSWORD_HASH"),
		AuditDSN:          os.Getenv("AUDIT_DSN"),
		CacheTTL:          getEnvDuration("CACHE_TTL", 30*time.Second),
		WarmupInterval:    getEnvDuration("WARMUP_INTERVAL", time.Minute),
	}
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.PocketBaseURL != "" {
		u, err := url.Parse(c.PocketBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Field: "PocketBaseURL", Message: "PB_URL must be an absolute URL (got: " + c.PocketBaseURL + ")"}
		}
	}

	validLogLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "OFF": true}
	if !validLogLevels[c.LogLevel] {
		return &ConfigError{Field: "LogLevel", Message: "LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR, OFF (got: " + c.LogLevel + ")"}
	}

	if c.SessionSecret == "" {
		return &ConfigError{Field: "SessionSecret", Message: "SESSION_SECRET is required"}
	}
	// secure cookies mean a deployed site, where a known secret lets anyone forge sessions
	if c.CookieSecure && c.UsesDefaultSessionSecret() {
		return &ConfigError{Field: "SessionSecret", Message: "SESSION_SECRET must be changed when COOKIE_SECURE is set"}
	}

	if c.SessionTTL <= 0 {
		return &ConfigError{Field: "SessionTTL", Message: "SESSION_TTL must be positive"}
	}

	return nil
}

// UsesDefaultSessionSecret reports whether session cookies are signed with the built-in secret.
func (c *Config) UsesDefaultSessionSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

// StaffCheckConfigured reports whether the staff password endpoint has a secret to compare with.
func (c *Config) StaffCheckConfigured() bool {
	return c.StaffPassword != "" || c.StaffPasswordHash != ""
}

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in " + e.Field + ": " + e.Message
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
