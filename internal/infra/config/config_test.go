package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "CORS_ORIGINS", "STORAGE_DRIVER", "MONGO_URI", "MONGO_DB",
		"POSTGRES_DSN", "POSTGRES_MIGRATE", "REDIS_ADDR", "REDIS_PASSWORD", "LOCK_TTL", "LOCK_WAIT",
		"KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "IDEMP_TTL", "OUTBOX_POLL_INTERVAL", "RETRY_BACKOFF",
		"BLOCKING_STATUSES_VEHICLE", "BLOCKING_STATUSES_STAY", "DEFAULT_CURRENCY", "LISTINGS_FIXTURES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.Dev())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 168*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.PostgresMigrate)
	assert.Equal(t, "LKR", cfg.DefaultCurrency)

	vehicle, err := cfg.Blocking.For(pricing.VerticalVehicle)
	require.NoError(t, err)
	assert.Equal(t, availability.DefaultVehicleBlocking(), vehicle)
	stay, err := cfg.Blocking.For(pricing.VerticalStay)
	require.NoError(t, err)
	assert.Equal(t, availability.DefaultStayBlocking(), stay)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/trevo")
	t.Setenv("POSTGRES_MIGRATE", "off")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RETRY_BACKOFF", "250ms,2s")
	t.Setenv("BLOCKING_STATUSES_VEHICLE", "pending, confirmed ,ACTIVE")
	t.Setenv("DEFAULT_CURRENCY", "usd")
	t.Setenv("LOCK_TTL", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Dev())
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.False(t, cfg.PostgresMigrate)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 2 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.True(t, cfg.Blocking.Vehicle.Contains(availability.StatusPending))
	assert.Len(t, cfg.Blocking.Vehicle, 3)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"LOCK_TTL": "soon"}, "LOCK_TTL"},
		{"bad backoff", map[string]string{"RETRY_BACKOFF": "1s,later"}, "RETRY_BACKOFF"},
		{"bad bool", map[string]string{"POSTGRES_MIGRATE": "maybe"}, "POSTGRES_MIGRATE"},
		{"bad status", map[string]string{"BLOCKING_STATUSES_STAY": "PENDING,HELD"}, "BLOCKING_STATUSES_STAY"},
		{"bad currency", map[string]string{"DEFAULT_CURRENCY": "rupees"}, "DEFAULT_CURRENCY"},
		{"mongo without uri", map[string]string{"STORAGE_DRIVER": "mongo"}, "MONGO_URI"},
		{"postgres without dsn", map[string]string{"STORAGE_DRIVER": "postgres"}, "POSTGRES_DSN"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}, "STORAGE_DRIVER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
