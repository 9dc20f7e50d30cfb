package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/reveal-be/internal/publisher"
)

const (
	SessionBackendRedis = "redis"
	SessionBackendJWT   = "jwt"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env         string
	Port        string
	MetricsPort string
	DatabaseURL string
	CORSOrigins []string

	RedisAddr      string
	SessionBackend string
	SessionTTL     time.Duration
	JWTSecret      string
	JWTIssuer      string

	KafkaBrokers       string
	TopicBetPlaced     string
	TopicEventRevealed string

	WagerFee     float64
	PlanDuration time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Env:         fallback(os.Getenv("ENV"), "local"),
		Port:        fallback(os.Getenv("PORT"), "8080"),
		MetricsPort: fallback(os.Getenv("METRICS_PORT"), "9095"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		RedisAddr:      fallback(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		SessionBackend: strings.ToLower(fallback(os.Getenv("SESSION_BACKEND"), SessionBackendRedis)),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "reveal-backend"),

		KafkaBrokers:       strings.TrimSpace(os.Getenv("KAFKA_BROKERS")),
		TopicBetPlaced:     fallback(os.Getenv("KAFKA_TOPIC_BET_PLACED"), publisher.TopicBetPlaced),
		TopicEventRevealed: fallback(os.Getenv("KAFKA_TOPIC_EVENT_REVEALED"), publisher.TopicEventRevealed),
	}

	cfg.SessionTTL = time.Duration(positiveInt(os.Getenv("SESSION_TTL_MINUTES"), 1440)) * time.Minute
	cfg.PlanDuration = time.Duration(positiveInt(os.Getenv("PLAN_DURATION_DAYS"), 30)) * 24 * time.Hour

	cfg.WagerFee = 15.0
	if raw := strings.TrimSpace(os.Getenv("WAGER_FEE")); raw != "" {
		fee, err := strconv.ParseFloat(raw, 64)
		if err != nil || fee <= 0 {
			return Config{}, fmt.Errorf("invalid WAGER_FEE value: %q", raw)
		}
		cfg.WagerFee = fee
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	switch cfg.SessionBackend {
	case SessionBackendRedis:
	case SessionBackendJWT:
		if cfg.JWTSecret == "" {
			return Config{}, errors.New("JWT_SECRET is required when SESSION_BACKEND=jwt")
		}
	default:
		return Config{}, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// PublishingEnabled reports whether Kafka brokers were configured.
func (c Config) PublishingEnabled() bool {
	return c.KafkaBrokers != ""
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
