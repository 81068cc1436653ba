// Package config provides configuration management for palette using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration file is .palette.yml; environment variables use the
// PALETTE_ prefix. Load applies defaults for unset values and validates the
// result.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/palette/internal/enricher"
	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/storage"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Loader    LoaderConfig    `mapstructure:"loader" yaml:"loader"`
	Enricher  EnricherConfig  `mapstructure:"enricher" yaml:"enricher"`
	Libraries LibrariesConfig `mapstructure:"libraries" yaml:"libraries"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type StorageConfig struct {
	// Backend is "file" or "sqlite"
	Backend    string `mapstructure:"backend" yaml:"backend"`
	Dir        string `mapstructure:"dir" yaml:"dir"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type LoaderConfig struct {
	// PluginDir caches downloaded plugin modules
	PluginDir   string        `mapstructure:"plugin_dir" yaml:"plugin_dir"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
}

type EnricherConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL         time.Duration `mapstructure:"ttl" yaml:"ttl"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	MaxBytes    int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
	// Templates maps package names to declaration URL templates
	Templates         map[string][]string `mapstructure:"templates" yaml:"templates"`
	FallbackTemplates []string            `mapstructure:"fallback_templates" yaml:"fallback_templates"`
}

type LibrariesConfig struct {
	ProfilesDir string `mapstructure:"profiles_dir" yaml:"profiles_dir"`
	// Enabled seeds the persisted enabled list when none exists yet
	Enabled []string `mapstructure:"enabled" yaml:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, paletteerrors.NewConfigError(paletteerrors.ErrCodeConfigInvalid, "cannot decode configuration: "+err.Error())
	}

	// Handle slices set via viper flags or env (workaround for viper slice handling)
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if viper.IsSet("libraries.enabled") && len(config.Libraries.Enabled) == 0 {
		config.Libraries.Enabled = viper.GetStringSlice("libraries.enabled")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, paletteerrors.NewConfigError(paletteerrors.ErrCodeConfigInvalid, "invalid configuration: "+err.Error())
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 && !viper.IsSet("server.port") {
		config.Server.Port = 8080
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{"http://localhost:8080", "http://127.0.0.1:8080"}
	}

	if config.Storage.Backend == "" {
		config.Storage.Backend = storage.BackendFile
	}
	if config.Storage.Dir == "" {
		config.Storage.Dir = ".palette/state"
	}

	if config.Loader.PluginDir == "" {
		config.Loader.PluginDir = ".palette/plugins"
	}
	if config.Loader.HTTPTimeout == 0 {
		config.Loader.HTTPTimeout = 30 * time.Second
	}

	if !viper.IsSet("enricher.enabled") {
		config.Enricher.Enabled = true
	}
	if config.Enricher.TTL == 0 {
		config.Enricher.TTL = storage.DefaultTTL
	}
	if config.Enricher.HTTPTimeout == 0 {
		config.Enricher.HTTPTimeout = 10 * time.Second
	}
	if config.Enricher.MaxBytes == 0 {
		config.Enricher.MaxBytes = enricher.DefaultMaxBytes
	}
	if config.Enricher.Templates == nil {
		config.Enricher.Templates = make(map[string][]string)
	}
	for pkg, templates := range enricher.DefaultTemplates {
		if _, ok := config.Enricher.Templates[pkg]; !ok {
			config.Enricher.Templates[pkg] = append([]string{}, templates...)
		}
	}
	if len(config.Enricher.FallbackTemplates) == 0 {
		config.Enricher.FallbackTemplates = append([]string{}, enricher.DefaultFallback...)
	}

	if config.Libraries.ProfilesDir == "" {
		config.Libraries.ProfilesDir = ".palette/profiles"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if !viper.IsSet("metrics.enabled") {
		config.Metrics.Enabled = true
	}
}
