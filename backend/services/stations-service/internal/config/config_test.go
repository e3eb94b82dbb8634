package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DOTENV_FILE", "")
	for _, key := range []string{
		"STATIONS_HTTP_PORT", "STATIONS_STORAGE", "STATIONS_POSTGRES_DSN",
		"STATIONS_REDIS_ADDR", "STATIONS_REDIS_TTL", "STATIONS_AMQP_URL",
		"STATIONS_NEARBY_CACHE_TTL", "STATIONS_NEARBY_CACHE_SIZE", "JWT_SECRET",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadMemoryDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATIONS_STORAGE", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STATIONS_NEARBY_CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8083", cfg.HTTPAddress())
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, time.Minute, cfg.NearbyCache.TTL)
	assert.Equal(t, 256, cfg.NearbyCache.Size)
	assert.Equal(t, 24*time.Hour, cfg.ActiveSessionTTL())
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATIONS_STORAGE", "postgres")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STATIONS_STORAGE", "sqlite")
	_, err = Load()
	require.ErrorContains(t, err, "unknown storage driver")

	t.Setenv("STATIONS_STORAGE", "memory")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.NoError(t, err)
}

func TestNearbyCacheDefaultsByDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATIONS_STORAGE", "postgres")
	t.Setenv("STATIONS_POSTGRES_DSN", "postgres://localhost/chargemap")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.NearbyCache.Size)

	t.Setenv("STATIONS_NEARBY_CACHE_SIZE", "64")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.NearbyCache.Size)

	t.Setenv("STATIONS_STORAGE", "memory")
	t.Setenv("STATIONS_NEARBY_CACHE_SIZE", "0")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.NearbyCache.Size)
}

func TestHTTPAddress(t *testing.T) {
	cfg := &Config{}
	cfg.HTTP.Port = ":9000"
	assert.Equal(t, ":9000", cfg.HTTPAddress())
	cfg.HTTP.Port = "9001"
	assert.Equal(t, ":9001", cfg.HTTPAddress())
}
