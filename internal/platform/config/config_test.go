package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"FINWELL_ADDR", "FINWELL_JWT_SIGNING_KEY", "FINWELL_REDIS_URL",
		"FINWELL_KAFKA_BROKERS", "FINWELL_PENDING_TTL", "FINWELL_ENFORCE_OWNERSHIP",
		"FINWELL_OPERATORS", "FINWELL_RELAYER_WORKERS", "FINWELL_RATE_LIMIT_DISABLED",
		"FINWELL_RATE_LIMIT_WINDOW", "FINWELL_RATE_LIMIT_DECRYPTION",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, devSigningKey, cfg.JWTSigningKey)
	assert.Empty(t, cfg.Redis.URL)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "finwell.events", cfg.Kafka.Topic)
	assert.Equal(t, 24*time.Hour, cfg.Protocol.PendingTTL)
	assert.Equal(t, 4, cfg.Protocol.RelayerWorkers)
	assert.True(t, cfg.EnforceOwnership)
	assert.Nil(t, cfg.Operators)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 20, cfg.RateLimit.Decryption)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FINWELL_ADDR", ":9090")
	t.Setenv("FINWELL_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("FINWELL_PENDING_TTL", "90s")
	t.Setenv("FINWELL_ENFORCE_OWNERSHIP", "false")
	t.Setenv("FINWELL_OPERATORS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("FINWELL_RELAYER_WORKERS", "-3")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Second, cfg.Protocol.PendingTTL)
	assert.False(t, cfg.EnforceOwnership)
	assert.Equal(t, []string{"0x00000000000000000000000000000000000000aa"}, cfg.Operators)
	assert.Equal(t, 4, cfg.Protocol.RelayerWorkers, "non-positive values fall back to the default")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finwell.env")
	require.NoError(t, os.WriteFile(path, []byte("FINWELL_KAFKA_TOPIC=from-file\nFINWELL_ADDR=:7000\n"), 0o600))

	t.Setenv("FINWELL_KAFKA_TOPIC", "")
	require.NoError(t, os.Unsetenv("FINWELL_KAFKA_TOPIC"))
	t.Setenv("FINWELL_ADDR", ":9999")

	require.NoError(t, LoadEnvFile(path))
	cfg := FromEnv()
	assert.Equal(t, "from-file", cfg.Kafka.Topic)
	assert.Equal(t, ":9999", cfg.Addr, "process environment wins")

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
