package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	GRPC      GRPCConfig
	Data      DataConfig
	Stage     StageConfig
	Animation AnimationConfig
	Readiness ReadinessConfig
	Log       LogConfig
	Sentry    SentryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// HTTPConfig holds the gin server settings
type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// GRPCConfig holds the gRPC server settings
type GRPCConfig struct {
	Port     string
	APIToken string
}

// DataConfig points at the data document
type DataConfig struct {
	URL      string // http(s) URL or file path
	Timeout  time.Duration
	RetryMax int
}

// StageConfig is the drawing area size
type StageConfig struct {
	Width  float64
	Height float64
}

// AnimationConfig controls how tokens travel
type AnimationConfig struct {
	Duration      time.Duration
	FrameInterval time.Duration
}

// ReadinessConfig bounds the wait for icons to load
type ReadinessConfig struct {
	Timeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SentryConfig enables fault reporting when DSN is set
type SentryConfig struct {
	DSN         string
	Environment string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FLOWVIZ_ prefix (e.g., FLOWVIZ_DATA_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds the configuration from an already populated viper
// instance, applying the FLOWVIZ_ environment overrides and the defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("FLOWVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		HTTP: HTTPConfig{
			Port:            v.GetString("http.port"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		GRPC: GRPCConfig{
			Port:     v.GetString("grpc.port"),
			APIToken: v.GetString("grpc.api_token"),
		},
		Data: DataConfig{
			URL:      v.GetString("data.url"),
			Timeout:  v.GetDuration("data.timeout"),
			RetryMax: v.GetInt("data.retry_max"),
		},
		Stage: StageConfig{
			Width:  v.GetFloat64("stage.width"),
			Height: v.GetFloat64("stage.height"),
		},
		Animation: AnimationConfig{
			Duration:      v.GetDuration("animation.duration"),
			FrameInterval: v.GetDuration("animation.frame_interval"),
		},
		Readiness: ReadinessConfig{
			Timeout: v.GetDuration("readiness.timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Sentry: SentryConfig{
			DSN:         v.GetString("sentry.dsn"),
			Environment: v.GetString("sentry.environment"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "flowviz"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.GRPC.Port == "" {
		cfg.GRPC.Port = "9090"
	}
	if cfg.GRPC.APIToken == "" {
		cfg.GRPC.APIToken = "dev-token"
	}
	if cfg.Data.URL == "" {
		cfg.Data.URL = "data.json"
	}
	if cfg.Data.Timeout == 0 {
		cfg.Data.Timeout = 10 * time.Second
	}
	if cfg.Data.RetryMax == 0 {
		cfg.Data.RetryMax = 3
	}
	if cfg.Stage.Width == 0 {
		cfg.Stage.Width = 1200
	}
	if cfg.Stage.Height == 0 {
		cfg.Stage.Height = 800
	}
	if cfg.Animation.Duration == 0 {
		cfg.Animation.Duration = 2 * time.Second
	}
	if cfg.Animation.FrameInterval == 0 {
		cfg.Animation.FrameInterval = 16 * time.Millisecond
	}
	if cfg.Readiness.Timeout == 0 {
		cfg.Readiness.Timeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.App.Env
	}
}

func (c *Config) validate() error {
	if c.Stage.Width <= 0 || c.Stage.Height <= 0 {
		return fmt.Errorf("stage size must be positive, got %vx%v", c.Stage.Width, c.Stage.Height)
	}
	if c.Animation.Duration < 0 {
		return fmt.Errorf("animation duration must be positive, got %s", c.Animation.Duration)
	}
	if c.Animation.FrameInterval < 0 || c.Animation.FrameInterval > c.Animation.Duration {
		return fmt.Errorf("animation frame interval must be within the animation duration, got %s", c.Animation.FrameInterval)
	}
	if c.Data.RetryMax < 0 {
		return fmt.Errorf("data retry max cannot be negative, got %d", c.Data.RetryMax)
	}
	if c.IsProduction() && c.GRPC.APIToken == "dev-token" {
		return fmt.Errorf("grpc api token must be set in production")
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// HTTPAddr returns the listen address of the HTTP server
func (c *Config) HTTPAddr() string {
	return ":" + c.HTTP.Port
}

// GRPCAddr returns the listen address of the gRPC server
func (c *Config) GRPCAddr() string {
	return ":" + c.GRPC.Port
}
