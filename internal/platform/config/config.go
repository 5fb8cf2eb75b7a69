package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	StaffRole     string
	LogLevel      string
	LogFormat     string

	DatabaseURL string
	Redis       RedisConfig
	Upstream    UpstreamConfig
	Events      EventsConfig

	MaxInProgressRequests int
}

// RedisConfig holds the Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// UpstreamConfig points at the contact registry and prisoner search services.
type UpstreamConfig struct {
	ContactRegistryURL string
	PrisonerSearchURL  string
	Timeout            time.Duration
	ContactsCacheTTL   time.Duration
	RateLimit          int
	RateLimitBurst     int
}

// Event sinks.
const (
	EventsSinkLog   = "log"
	EventsSinkKafka = "kafka"
	EventsSinkSQS   = "sqs"
)

// EventsConfig selects and configures the domain-event sink.
type EventsConfig struct {
	Sink           string
	KafkaBrokers   []string
	KafkaTopic     string
	SQSQueueURL    string
	PublishTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string

	duration := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	integer := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid positive integer %q", key, raw))
			return def
		}
		return n
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	cfg := Server{
		Addr:          envOr("BOOKER_REGISTRY_ADDR", ":8080"),
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     envOr("JWT_ISSUER", "booker-registry"),
		StaffRole:     envOr("BOOKER_REGISTRY_STAFF_ROLE", "ROLE_VISIT_BOOKER_REGISTRY"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Upstream: UpstreamConfig{
			ContactRegistryURL: os.Getenv("CONTACT_REGISTRY_URL"),
			PrisonerSearchURL:  os.Getenv("PRISONER_SEARCH_URL"),
			Timeout:            duration("UPSTREAM_TIMEOUT", 5*time.Second),
			ContactsCacheTTL:   duration("CONTACTS_CACHE_TTL", 5*time.Minute),
			RateLimit:          integer("UPSTREAM_RATE_LIMIT", 50),
			RateLimitBurst:     integer("UPSTREAM_RATE_LIMIT_BURST", 100),
		},
		Events: EventsConfig{
			Sink:           strings.ToLower(envOr("EVENTS_SINK", EventsSinkLog)),
			KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
			KafkaTopic:     envOr("KAFKA_TOPIC", "booker-registry.events"),
			SQSQueueURL:    os.Getenv("SQS_QUEUE_URL"),
			PublishTimeout: duration("EVENT_PUBLISH_TIMEOUT", 2*time.Second),
		},
		MaxInProgressRequests: integer("MAX_IN_PROGRESS_VISITOR_REQUESTS", 3),
	}

	switch cfg.Events.Sink {
	case EventsSinkLog:
	case EventsSinkKafka:
		if len(cfg.Events.KafkaBrokers) == 0 {
			errs = append(errs, "KAFKA_BROKERS is required when EVENTS_SINK=kafka")
		}
	case EventsSinkSQS:
		if cfg.Events.SQSQueueURL == "" {
			errs = append(errs, "SQS_QUEUE_URL is required when EVENTS_SINK=sqs")
		}
	default:
		errs = append(errs, fmt.Sprintf("EVENTS_SINK: unknown sink %q", cfg.Events.Sink))
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
