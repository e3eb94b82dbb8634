package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	HTTP struct {
		Port string `yaml:"port" env:"TEST_HTTP_PORT"`
	} `yaml:"http"`
	Cache struct {
		Size int           `yaml:"size"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Origins []string `yaml:"origins" env:"TEST_ORIGINS"`
	Debug   bool     `yaml:"debug" env:"TEST_DEBUG"`
	Ignored string   `env:"-"`
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	require.Error(t, LoadConfig(nil))
	require.Error(t, LoadConfig(testConfig{}))
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "http:\n  port: \"9000\"\ncache:\n  size: 64\n  ttl: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DOTENV_FILE", "")
	t.Setenv("TEST_HTTP_PORT", "9100")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("TEST_ORIGINS", "a.example, b.example,,")
	t.Setenv("TEST_DEBUG", "true")
	t.Setenv("IGNORED", "nope")

	var cfg testConfig
	require.NoError(t, LoadConfig(&cfg))

	assert.Equal(t, "9100", cfg.HTTP.Port)
	assert.Equal(t, 64, cfg.Cache.Size)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Origins)
	assert.True(t, cfg.Debug)
	assert.Empty(t, cfg.Ignored)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_HTTP_PORT=7000\n"), 0o600))

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DOTENV_FILE", path)
	// godotenv never overrides variables that are already present.
	os.Unsetenv("TEST_HTTP_PORT")
	t.Cleanup(func() { os.Unsetenv("TEST_HTTP_PORT") })

	var cfg testConfig
	require.NoError(t, LoadConfig(&cfg))
	assert.Equal(t, "7000", cfg.HTTP.Port)
}

func TestLoadConfigMissingExplicitDotEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	var cfg testConfig
	require.Error(t, LoadConfig(&cfg))
}

func TestLoadConfigInvalidValue(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DOTENV_FILE", "")
	t.Setenv("CACHE_SIZE", "many")

	var cfg testConfig
	err := LoadConfig(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_SIZE")
}
