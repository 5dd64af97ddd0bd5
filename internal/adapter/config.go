package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "snapgrid"

// Config holds all application configuration
type Config struct {
	Unsplash UnsplashConfig `mapstructure:"unsplash"`
	UI       UIConfig       `mapstructure:"ui"`
	Cache    CacheConfig    `mapstructure:"cache"`
	History  HistoryConfig  `mapstructure:"history"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// UnsplashConfig holds search endpoint configuration
type UnsplashConfig struct {
	URL       string        `mapstructure:"url"`        // Search endpoint
	AccessKey string        `mapstructure:"access_key"` // Sent as client_id
	PerPage   int           `mapstructure:"per_page"`   // Results on the first (only) page
	Timeout   time.Duration `mapstructure:"timeout"`    // 0 = no timeout
}

// UIConfig holds UI configuration
type UIConfig struct {
	GridColumns int  `mapstructure:"grid_columns"`
	ShowIDs     bool `mapstructure:"show_ids"` // Label cells with the photo ID
}

// CacheConfig holds image cache configuration
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// HistoryConfig holds search history configuration
type HistoryConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// MetricsConfig holds the optional Prometheus listener
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // e.g. "127.0.0.1:9464", empty = disabled
}

// ViewerConfig holds the external program used to open photos
type ViewerConfig struct {
	Command string   `mapstructure:"command"` // empty = system default opener
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Unsplash: UnsplashConfig{
			URL:     "https://api.unsplash.com/search/photos",
			PerPage: 30,
		},
		UI: UIConfig{
			GridColumns: 3,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     defaultCachePath(),
		},
		History: HistoryConfig{
			MaxEntries: 50,
		},
		Viewer: ViewerConfig{
			Args: []string{},
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
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

// newViper creates a viper instance seeded with defaults so that every key can
// be overridden from the environment (SNAPGRID_UNSPLASH_ACCESS_KEY, ...).
func newViper(defaults *Config) *viper.Viper {
	v := viper.New()

	v.SetDefault("unsplash.url", defaults.Unsplash.URL)
	v.SetDefault("unsplash.access_key", defaults.Unsplash.AccessKey)
	v.SetDefault("unsplash.per_page", defaults.Unsplash.PerPage)
	v.SetDefault("unsplash.timeout", defaults.Unsplash.Timeout)
	v.SetDefault("ui.grid_columns", defaults.UI.GridColumns)
	v.SetDefault("ui.show_ids", defaults.UI.ShowIDs)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("history.max_entries", defaults.History.MaxEntries)
	v.SetDefault("metrics.listen", defaults.Metrics.Listen)
	v.SetDefault("viewer.command", defaults.Viewer.Command)
	v.SetDefault("viewer.args", defaults.Viewer.Args)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	v := newViper(DefaultConfig())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultConfigPath())
	v.AddConfigPath(".")

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	return unmarshal(v)
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	v := newViper(DefaultConfig())
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise break the UI or the request
func (c *Config) Validate() error {
	if c.UI.GridColumns < 1 {
		return fmt.Errorf("ui.grid_columns must be at least 1, got %d", c.UI.GridColumns)
	}
	if c.Unsplash.PerPage < 1 || c.Unsplash.PerPage > 30 {
		return fmt.Errorf("unsplash.per_page must be between 1 and 30, got %d", c.Unsplash.PerPage)
	}
	if c.Unsplash.Timeout < 0 {
		return fmt.Errorf("unsplash.timeout must not be negative")
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must not be negative")
	}
	return nil
}

// SaveConfig saves the configuration to the default config file
func SaveConfig(cfg *Config) error {
	return SaveConfigFile(cfg, filepath.Join(defaultConfigPath(), "config.yaml"))
}

// SaveConfigFile writes the configuration to path as YAML
func SaveConfigFile(cfg *Config, path string) error {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("unsplash.url", cfg.Unsplash.URL)
	v.Set("unsplash.access_key", cfg.Unsplash.AccessKey)
	v.Set("unsplash.per_page", cfg.Unsplash.PerPage)
	v.Set("unsplash.timeout", cfg.Unsplash.Timeout.String())

	v.Set("ui.grid_columns", cfg.UI.GridColumns)
	v.Set("ui.show_ids", cfg.UI.ShowIDs)

	v.Set("cache.enabled", cfg.Cache.Enabled)
	v.Set("cache.dir", cfg.Cache.Dir)

	v.Set("history.max_entries", cfg.History.MaxEntries)
	v.Set("metrics.listen", cfg.Metrics.Listen)

	v.Set("viewer.command", cfg.Viewer.Command)
	v.Set("viewer.args", cfg.Viewer.Args)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if an access key is set
func (c *Config) IsConfigured() bool {
	return c.Unsplash.AccessKey != ""
}

// ClearCache removes all cached data
func ClearCache(cachePath string) error {
	if cachePath == "" {
		cachePath = defaultCachePath()
	}
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// GetCachePath returns the default cache directory path
func GetCachePath() string {
	return defaultCachePath()
}
