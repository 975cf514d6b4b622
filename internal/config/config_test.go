package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutEnvFile(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 15*time.Second, cfg.Kairos.RequestTimeout)
	assert.Equal(t, 1.0, cfg.Map.MinZoom)
	assert.Equal(t, 15.0, cfg.Map.MaxZoom)
	assert.Equal(t, 10.0, cfg.Map.SinglePointZoom)
	assert.False(t, cfg.Map.ShowOrderBadges)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	t.Setenv("API_ENV", "development")
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("KAIROS_API_BASE_URL", "https://api.kairos.test/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, "https://api.kairos.test", cfg.Kairos.BaseURL)
	assert.True(t, cfg.Map.ShowOrderBadges)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddr())
}

func TestLoad_RejectsUnknownSessionStore(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	t.Setenv("SESSION_STORE", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
