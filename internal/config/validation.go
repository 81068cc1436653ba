package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conneroisu/palette/internal/logging"
	"github.com/conneroisu/palette/internal/storage"
	"github.com/conneroisu/palette/internal/validation"
)

// validateConfig validates the loaded configuration for security and correctness.
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateStorageConfig(&config.Storage); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	if err := validateLoaderConfig(&config.Loader); err != nil {
		return fmt.Errorf("loader config: %w", err)
	}
	if err := validateEnricherConfig(&config.Enricher); err != nil {
		return fmt.Errorf("enricher config: %w", err)
	}
	if err := validateLibrariesConfig(&config.Libraries); err != nil {
		return fmt.Errorf("libraries config: %w", err)
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	return nil
}

func validateServerConfig(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if err := validation.ValidateURL(origin); err != nil {
			return fmt.Errorf("allowed origin %q: %w", origin, err)
		}
	}

	return nil
}

func validateStorageConfig(config *StorageConfig) error {
	switch config.Backend {
	case storage.BackendFile, storage.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", config.Backend, storage.BackendFile, storage.BackendSQLite)
	}

	if err := validation.ValidatePath(config.Dir); err != nil {
		return fmt.Errorf("dir: %w", err)
	}
	if config.SQLitePath != "" {
		if err := validation.ValidatePath(config.SQLitePath); err != nil {
			return fmt.Errorf("sqlite_path: %w", err)
		}
	}
	return nil
}

func validateLoaderConfig(config *LoaderConfig) error {
	if err := validation.ValidatePath(config.PluginDir); err != nil {
		return fmt.Errorf("plugin_dir: %w", err)
	}
	if config.HTTPTimeout < 0 {
		return errors.New("http_timeout cannot be negative")
	}
	return nil
}

func validateEnricherConfig(config *EnricherConfig) error {
	if config.TTL < 0 {
		return errors.New("ttl cannot be negative")
	}
	if config.HTTPTimeout < 0 {
		return errors.New("http_timeout cannot be negative")
	}
	if config.MaxBytes < 0 {
		return errors.New("max_bytes cannot be negative")
	}

	for pkg, templates := range config.Templates {
		for _, template := range templates {
			if err := validation.ValidateURL(template); err != nil {
				return fmt.Errorf("templates[%s]: %w", pkg, err)
			}
		}
	}
	for _, template := range config.FallbackTemplates {
		if err := validation.ValidateURL(template); err != nil {
			return fmt.Errorf("fallback_templates: %w", err)
		}
	}
	return nil
}

func validateLibrariesConfig(config *LibrariesConfig) error {
	if err := validation.ValidatePath(config.ProfilesDir); err != nil {
		return fmt.Errorf("profiles_dir: %w", err)
	}
	for _, id := range config.Enabled {
		if strings.TrimSpace(id) == "" {
			return errors.New("enabled contains an empty library id")
		}
	}
	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}
	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q (want text or json)", config.Format)
	}
	return nil
}
