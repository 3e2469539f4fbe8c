// Package config loads service configuration from a YAML file and
// environment variables, with sensible local-development defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type AuthConfig struct {
	// TokenSecret enables bearer-token auth on /api when non-empty.
	TokenSecret string `mapstructure:"token_secret"`
}

type StorageConfig struct {
	DBPath        string        `mapstructure:"db_path"`
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type RendererConfig struct {
	PythonBin     string        `mapstructure:"python_bin"`
	WorkspaceRoot string        `mapstructure:"workspace_root"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CleanupGrace  time.Duration `mapstructure:"cleanup_grace"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Renderer RendererConfig `mapstructure:"renderer"`
	LogLevel string         `mapstructure:"log_level"`
}

// Load reads chartlab.yaml from the working directory or ~/.chartlab, then
// applies CHARTLAB_* environment overrides (CHARTLAB_SERVER_PORT,
// CHARTLAB_RENDERER_TIMEOUT, ...). A missing config file is fine; defaults
// plus env cover the local single-tenant case.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("chartlab")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.chartlab")

	v.SetEnvPrefix("CHARTLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("storage.db_path", "data/chartlab.db")
	v.SetDefault("storage.retention", 7*24*time.Hour)
	v.SetDefault("storage.prune_interval", time.Hour)
	v.SetDefault("renderer.python_bin", "python3")
	v.SetDefault("renderer.workspace_root", "data/workspaces")
	v.SetDefault("renderer.timeout", 30*time.Second)
	v.SetDefault("renderer.cleanup_grace", time.Minute)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Renderer.Timeout <= 0 {
		return nil, fmt.Errorf("renderer.timeout must be positive, got %s", cfg.Renderer.Timeout)
	}

	return &cfg, nil
}
