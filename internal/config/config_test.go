package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "helpdesk.emails", cfg.RabbitMQ.EmailQueue)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "json", cfg.Logger.Encoding)
	assert.Equal(t, cfg.App.Name, cfg.Logger.Service)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_CACHE_TTL_SECONDS", "10")
	t.Setenv("MINIO_URL_EXPIRY_MINUTES", "bogus")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Second, cfg.Redis.CacheTTL())
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLExpiry())
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")
	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_DB")
}
