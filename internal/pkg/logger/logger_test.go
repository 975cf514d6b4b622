package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig(t *testing.T) {
	t.Run("production writes sampled json", func(t *testing.T) {
		cfg := Config("warn", "production")
		assert.Equal(t, "json", cfg.Encoding)
		assert.False(t, cfg.Development)
		assert.NotNil(t, cfg.Sampling)
		assert.Equal(t, zapcore.WarnLevel, cfg.Level.Level())
		assert.Equal(t, "time", cfg.EncoderConfig.TimeKey)
	})

	t.Run("development switches to console", func(t *testing.T) {
		cfg := Config("info", "development")
		assert.Equal(t, "console", cfg.Encoding)
		assert.True(t, cfg.Development)
		assert.Nil(t, cfg.Sampling)
		assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
	})

	t.Run("debug level switches to console", func(t *testing.T) {
		cfg := Config("debug", "production")
		assert.Equal(t, "console", cfg.Encoding)
		assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		cfg := Config("loud", "production")
		assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
	})
}

func TestNew(t *testing.T) {
	log, err := New("info", "test")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
