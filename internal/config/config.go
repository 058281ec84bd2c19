package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Push    PushConfig    `mapstructure:"push"`
	Cache   CacheConfig   `mapstructure:"cache"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig holds hosted backend configuration
type BackendConfig struct {
	URL    string `mapstructure:"url"`     // Backend base URL
	APIKey string `mapstructure:"api_key"` // Public (anon) API key
	Bucket string `mapstructure:"bucket"`  // Storage bucket for images
}

// PushConfig holds push gateway configuration
type PushConfig struct {
	URL string `mapstructure:"url"` // Push gateway base URL (defaults to backend URL)
}

// CacheConfig holds offline cache configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // Cache directory ("" = memory-only)
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultTab string `mapstructure:"default_tab"` // "events", "clubs", or "feed"
	FeedLimit  int    `mapstructure:"feed_limit"`  // Posts per feed fetch
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Bucket: "images",
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		UI: UIConfig{
			DefaultTab: "events",
			FeedLimit:  50,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "quad", "quad.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "quad", "quad.log")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "quad", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "quad", "cache")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "quad")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "quad")
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides (QUAD_BACKEND_URL, QUAD_BACKEND_API_KEY, ...)
	viper.SetEnvPrefix("QUAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvKeys()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Push.URL == "" {
		cfg.Push.URL = cfg.Backend.URL
	}

	return cfg, nil
}

// bindEnvKeys maps nested config keys to QUAD_* environment variables so
// AutomaticEnv picks them up without a config file present
func bindEnvKeys() {
	for _, key := range []string{
		"backend.url", "backend.api_key", "backend.bucket",
		"push.url", "cache.dir",
		"ui.default_tab", "ui.feed_limit",
		"logging.file", "logging.level",
	} {
		_ = viper.BindEnv(key)
	}
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("backend.url", cfg.Backend.URL)
	viper.Set("backend.api_key", cfg.Backend.APIKey)
	viper.Set("backend.bucket", cfg.Backend.Bucket)
	viper.Set("push.url", cfg.Push.URL)
	viper.Set("cache.dir", cfg.Cache.Dir)
	viper.Set("ui.default_tab", cfg.UI.DefaultTab)
	viper.Set("ui.feed_limit", cfg.UI.FeedLimit)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the backend URL and API key are set
func (c *Config) IsConfigured() bool {
	return c.Backend.URL != "" && c.Backend.APIKey != ""
}
