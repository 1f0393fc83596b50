// Package config builds runtime configuration from the environment so main
// stays lean. All variables carry the LABTRACE_ prefix.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
}

// Postgres is the entity and audit store. An empty DSN selects the
// in-memory stores, which is the development default.
type Postgres struct {
	DSN string
}

// Redis enables cross-process entity locking. Empty URL means in-process
// locks only, which is correct for a single instance.
type Redis struct {
	URL string
}

// Kafka enables the audit export feed. No brokers means no export.
type Kafka struct {
	Brokers  []string
	Topic    string
	FeedSize int
}

func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getenv("LABTRACE_ADDR", ":8080"),
			JWTSigningKey:   getenv("LABTRACE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:       getenv("LABTRACE_JWT_ISSUER", "labtrace"),
			TokenTTL:        getduration("LABTRACE_TOKEN_TTL", time.Hour),
			ShutdownTimeout: getduration("LABTRACE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("LABTRACE_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL: os.Getenv("LABTRACE_REDIS_URL"),
		},
		Kafka: Kafka{
			Brokers:  getlist("LABTRACE_KAFKA_BROKERS"),
			Topic:    getenv("LABTRACE_KAFKA_AUDIT_TOPIC", "labtrace.audit"),
			FeedSize: getint("LABTRACE_KAFKA_FEED_SIZE", 1024),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getlist(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
