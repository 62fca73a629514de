package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "flowviz", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.HTTP.Port)
		assert.Equal(t, "9090", cfg.GRPC.Port)
		assert.Equal(t, "data.json", cfg.Data.URL)
		assert.Equal(t, 3, cfg.Data.RetryMax)
		assert.Equal(t, 1200.0, cfg.Stage.Width)
		assert.Equal(t, 800.0, cfg.Stage.Height)
		assert.Equal(t, 2*time.Second, cfg.Animation.Duration)
		assert.Equal(t, 16*time.Millisecond, cfg.Animation.FrameInterval)
		assert.Equal(t, 30*time.Second, cfg.Readiness.Timeout)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, "", cfg.Sentry.DSN)
		assert.Equal(t, "development", cfg.Sentry.Environment)
		assert.Equal(t, ":8080", cfg.HTTPAddr())
		assert.Equal(t, ":9090", cfg.GRPCAddr())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("FLOWVIZ_DATA_URL", "https://example.com/data.json")
		t.Setenv("FLOWVIZ_HTTP_PORT", "3000")
		t.Setenv("FLOWVIZ_ANIMATION_DURATION", "500ms")
		t.Setenv("FLOWVIZ_STAGE_WIDTH", "640")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://example.com/data.json", cfg.Data.URL)
		assert.Equal(t, "3000", cfg.HTTP.Port)
		assert.Equal(t, 500*time.Millisecond, cfg.Animation.Duration)
		assert.Equal(t, 640.0, cfg.Stage.Width)
	})
}

func TestFromViper_TOML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[app]
env = "staging"

[data]
url = "fixtures/data.json"
retry_max = 5

[log]
format = "json"
`)))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "staging", cfg.Sentry.Environment)
	assert.Equal(t, "fixtures/data.json", cfg.Data.URL)
	assert.Equal(t, 5, cfg.Data.RetryMax)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"negative stage", func(c *Config) { c.Stage.Width = -1 }, "stage size must be positive"},
		{"frame longer than animation", func(c *Config) { c.Animation.FrameInterval = 3 * time.Second }, "frame interval"},
		{"negative retries", func(c *Config) { c.Data.RetryMax = -1 }, "retry max"},
		{"dev token in production", func(c *Config) { c.App.Env = "production" }, "api token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
