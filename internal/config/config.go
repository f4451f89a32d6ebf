package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	TMDB     TMDBConfig     `mapstructure:"tmdb" yaml:"tmdb"`
	Suggest  SuggestConfig  `mapstructure:"suggest" yaml:"suggest"`
	Settings SettingsConfig `mapstructure:"settings" yaml:"settings"`
	Health   HealthConfig   `mapstructure:"health" yaml:"health"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// DatabaseConfig holds the settings database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	Token    string `mapstructure:"token" yaml:"token"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	Language string `mapstructure:"language" yaml:"language"`
	// Timeout in seconds, 0 disables the client timeout.
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
}

// SuggestConfig holds search-as-you-type and link formatting configuration.
type SuggestConfig struct {
	QuietIntervalMS           int    `mapstructure:"quiet_interval_ms" yaml:"quiet_interval_ms"`
	MinQueryLength            int    `mapstructure:"min_query_length" yaml:"min_query_length"`
	GenreSeparator            string `mapstructure:"genre_separator" yaml:"genre_separator"`
	LinkBaseURL               string `mapstructure:"link_base_url" yaml:"link_base_url"`
	ExternalIDCacheSize       int    `mapstructure:"external_id_cache_size" yaml:"external_id_cache_size"`
	ExternalIDCacheTTLMinutes int    `mapstructure:"external_id_cache_ttl_minutes" yaml:"external_id_cache_ttl_minutes"`
	MaxSessions               int    `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// SettingsConfig holds settings store configuration.
type SettingsConfig struct {
	// Passphrase enables encryption of the stored API token when set.
	Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`
}

// HealthConfig holds background health check configuration.
type HealthConfig struct {
	// ProviderCheckInterval is how often serve tests TMDB reachability.
	// Zero disables the check.
	ProviderCheckInterval time.Duration `mapstructure:"provider_check_interval" yaml:"provider_check_interval"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7878,
		},
		Database: DatabaseConfig{
			Path: "./data/filmlink.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TMDB: TMDBConfig{
			BaseURL:  "https://api.themoviedb.org/3",
			Language: "en-US",
		},
		Suggest: SuggestConfig{
			QuietIntervalMS:           250,
			MinQueryLength:            3,
			GenreSeparator:            ", ",
			LinkBaseURL:               "https://www.imdb.com/title",
			ExternalIDCacheSize:       512,
			ExternalIDCacheTTLMinutes: 60,
			MaxSessions:               128,
		},
		Health: HealthConfig{
			ProviderCheckInterval: 15 * time.Minute,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.filmlink")
	}

	v.SetEnvPrefix("FILMLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.TMDB.Token == "" {
		cfg.TMDB.Token = EmbeddedTMDBToken
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	// Bound explicitly so FILMLINK_TMDB_TOKEN is picked up by Unmarshal.
	v.SetDefault("tmdb.token", "")
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.language", d.TMDB.Language)
	v.SetDefault("tmdb.timeout", 0)

	v.SetDefault("suggest.quiet_interval_ms", d.Suggest.QuietIntervalMS)
	v.SetDefault("suggest.min_query_length", d.Suggest.MinQueryLength)
	v.SetDefault("suggest.genre_separator", d.Suggest.GenreSeparator)
	v.SetDefault("suggest.link_base_url", d.Suggest.LinkBaseURL)
	v.SetDefault("suggest.external_id_cache_size", d.Suggest.ExternalIDCacheSize)
	v.SetDefault("suggest.external_id_cache_ttl_minutes", d.Suggest.ExternalIDCacheTTLMinutes)
	v.SetDefault("suggest.max_sessions", d.Suggest.MaxSessions)

	v.SetDefault("settings.passphrase", "")

	v.SetDefault("health.provider_check_interval", d.Health.ProviderCheckInterval)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// QuietInterval returns the debounce quiet interval as a duration.
func (c *SuggestConfig) QuietInterval() time.Duration {
	return time.Duration(c.QuietIntervalMS) * time.Millisecond
}

// ExternalIDCacheTTL returns the external id cache TTL as a duration.
func (c *SuggestConfig) ExternalIDCacheTTL() time.Duration {
	return time.Duration(c.ExternalIDCacheTTLMinutes) * time.Minute
}

// YAML renders the effective configuration with secrets redacted.
func (c *Config) YAML() (string, error) {
	redacted := *c
	if redacted.TMDB.Token != "" {
		redacted.TMDB.Token = "********"
	}
	if redacted.Settings.Passphrase != "" {
		redacted.Settings.Passphrase = "********"
	}

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
