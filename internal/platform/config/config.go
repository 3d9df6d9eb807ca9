// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strutil "opsgov/pkg/platform/strings"
)

// Governance holds the tunable thresholds of the decision engine.
type Governance struct {
	// HighThreshold is the risk score at or above which an action requires
	// manual validation.
	HighThreshold int
	// CriticalThreshold is the risk score at or above which an action is
	// eligible for automatic blocking.
	CriticalThreshold int
	// AutoBlock enables automatic blocking at the critical threshold.
	AutoBlock bool
}

// Redis holds connection settings for the optional history cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds settings for the optional audit fan-out publisher.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Workflow holds settings for the outbound automation webhook.
type Workflow struct {
	WebhookURL string
	Enabled    bool
}

// Config captures everything the server needs at startup.
type Config struct {
	Addr           string
	DatabaseURL    string
	JWTSigningKey  string
	AccessTokenTTL time.Duration
	Governance     Governance
	Redis          Redis
	Kafka          Kafka
	Workflow       Workflow
}

// FromEnv builds a Config from environment variables, applying development
// defaults where unset.
func FromEnv() Config {
	addr := os.Getenv("OPSGOV_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	cfg := Config{
		Addr:           addr,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSigningKey:  jwtSigningKey,
		AccessTokenTTL: durationEnv("ACCESS_TOKEN_TTL", 8*time.Hour),
		Governance: Governance{
			HighThreshold:     intEnv("RISK_THRESHOLD_HIGH", 75),
			CriticalThreshold: intEnv("RISK_THRESHOLD_CRITICAL", 90),
			AutoBlock:         os.Getenv("AUTO_BLOCK_ENABLED") != "false",
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: splitEnv("KAFKA_BROKERS"),
			Topic:   defaultEnv("AUDIT_TOPIC", "opsgov.audit"),
		},
		Workflow: Workflow{
			WebhookURL: os.Getenv("WORKFLOW_WEBHOOK_URL"),
			Enabled:    os.Getenv("WORKFLOW_WEBHOOK_ENABLED") == "true",
		},
	}
	return cfg
}

func defaultEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strutil.DedupeAndTrim(strings.Split(v, ","))
	if len(parts) == 0 {
		return nil
	}
	return parts
}
