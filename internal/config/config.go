// Package config loads client configuration from ~/.fcast/config.toml with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".fcast"

	baseURLKey         = "api.base_url"
	requestTimeoutKey  = "api.request_timeout"
	refreshIntervalKey = "session.refresh_interval"
	pollIntervalKey    = "notifications.poll_interval"
	listLimitKey       = "notifications.list_limit"
	logLevelKey        = "log.level"
)

type Config struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RefreshInterval time.Duration
	PollInterval    time.Duration
	ListLimit       int
	LogLevel        string
	CredentialsDir  string
}

func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))

	cfg.SetDefault(baseURLKey, "https://api.fcast.dev/api/v1")
	cfg.SetDefault(requestTimeoutKey, "30s")
	cfg.SetDefault(refreshIntervalKey, "14m")
	cfg.SetDefault(pollIntervalKey, "30s")
	cfg.SetDefault(listLimitKey, 20)
	cfg.SetDefault(logLevelKey, "warn")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	loaded := Config{
		BaseURL:         envOrDefault("FCAST_API_BASE_URL", cfg.GetString(baseURLKey)),
		RequestTimeout:  cfg.GetDuration(requestTimeoutKey),
		RefreshInterval: cfg.GetDuration(refreshIntervalKey),
		PollInterval:    cfg.GetDuration(pollIntervalKey),
		ListLimit:       cfg.GetInt(listLimitKey),
		LogLevel:        envOrDefault("FCAST_LOG_LEVEL", cfg.GetString(logLevelKey)),
		CredentialsDir:  filepath.Join(homeDir, configDir),
	}

	if loaded.BaseURL == "" {
		return Config{}, errors.New("api base url is empty")
	}

	return loaded, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
