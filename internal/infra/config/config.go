package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/money"
)

const (
	StorageMemory   = "memory"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	LogLevel           string
	HTTPAddr           string
	CORSOrigins        []string
	StorageDriver      string
	MongoURI           string
	MongoDB            string
	PostgresDSN        string
	PostgresMigrate    bool
	RedisAddr          string
	RedisPassword      string
	LockTTL            time.Duration
	LockWait           time.Duration
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	Blocking           availability.Policy
	DefaultCurrency    string
	ListingsFixtures   string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "*")),
		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "trevo"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		ListingsFixtures: os.Getenv("LISTINGS_FIXTURES"),
	}

	var err error
	if cfg.LockTTL, err = parseDurationEnv("LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.LockWait, err = parseDurationEnv("LOCK_WAIT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PostgresMigrate, err = parseBoolEnv("POSTGRES_MIGRATE", true); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}

	for _, raw := range splitList(getEnv("RETRY_BACKOFF", "1s,5s,30s")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.Blocking.Vehicle, err = parseStatusSetEnv("BLOCKING_STATUSES_VEHICLE", availability.DefaultVehicleBlocking()); err != nil {
		return Config{}, err
	}
	if cfg.Blocking.Stay, err = parseStatusSetEnv("BLOCKING_STATUSES_STAY", availability.DefaultStayBlocking()); err != nil {
		return Config{}, err
	}

	if cfg.DefaultCurrency, err = money.NormalizeCurrency(getEnv("DEFAULT_CURRENCY", "LKR")); err != nil {
		return Config{}, fmt.Errorf("invalid DEFAULT_CURRENCY: %w", err)
	}

	switch cfg.StorageDriver {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required for STORAGE_DRIVER=%s", cfg.StorageDriver)
		}
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required for STORAGE_DRIVER=%s", cfg.StorageDriver)
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	return cfg, nil
}

// Dev reports whether the process runs on a developer machine.
func (c Config) Dev() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func parseStatusSetEnv(key string, def availability.StatusSet) (availability.StatusSet, error) {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	set, err := availability.ParseStatusSet(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return set, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
