package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/palette/internal/enricher"
	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/storage"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.NotEmpty(t, config.Server.AllowedOrigins)
	assert.Equal(t, storage.BackendFile, config.Storage.Backend)
	assert.Equal(t, ".palette/state", config.Storage.Dir)
	assert.Equal(t, ".palette/plugins", config.Loader.PluginDir)
	assert.Equal(t, 30*time.Second, config.Loader.HTTPTimeout)
	assert.True(t, config.Enricher.Enabled)
	assert.Equal(t, storage.DefaultTTL, config.Enricher.TTL)
	assert.Equal(t, enricher.DefaultMaxBytes, config.Enricher.MaxBytes)
	assert.Equal(t, enricher.DefaultFallback, config.Enricher.FallbackTemplates)
	for pkg := range enricher.DefaultTemplates {
		assert.Contains(t, config.Enricher.Templates, pkg)
	}
	assert.Equal(t, ".palette/profiles", config.Libraries.ProfilesDir)
	assert.Empty(t, config.Libraries.Enabled)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.True(t, config.Metrics.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("server.host", "0.0.0.0")
	viper.Set("server.port", 3000)
	viper.Set("storage.backend", "sqlite")
	viper.Set("storage.sqlite_path", "state/palette.db")
	viper.Set("enricher.enabled", false)
	viper.Set("enricher.ttl", "1h")
	viper.Set("enricher.templates", map[string][]string{
		"acme-ui": {"https://cdn.example.com/{package}@{version}/{path}.d.ts"},
	})
	viper.Set("libraries.enabled", []string{"demo", "mui"})
	viper.Set("log.level", "debug")
	viper.Set("log.format", "json")
	viper.Set("metrics.enabled", false)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, storage.BackendSQLite, config.Storage.Backend)
	assert.Equal(t, "state/palette.db", config.Storage.SQLitePath)
	assert.False(t, config.Enricher.Enabled)
	assert.Equal(t, time.Hour, config.Enricher.TTL)
	assert.Equal(t, []string{"https://cdn.example.com/{package}@{version}/{path}.d.ts"}, config.Enricher.Templates["acme-ui"])
	assert.Equal(t, []string{"demo", "mui"}, config.Libraries.Enabled)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.False(t, config.Metrics.Enabled)
}

func TestLoad_ExplicitZeroPortIsKept(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("server.port", 0)

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, config.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
		errMsg string
	}{
		{
			name:   "port out of range",
			values: map[string]interface{}{"server.port": 70000},
			errMsg: "port 70000 is not in valid range",
		},
		{
			name:   "dangerous host",
			values: map[string]interface{}{"server.host": "localhost; rm -rf /"},
			errMsg: "host contains dangerous character",
		},
		{
			name:   "relative origin",
			values: map[string]interface{}{"server.allowed_origins": []string{"localhost:8080"}},
			errMsg: "invalid URL scheme",
		},
		{
			name:   "unknown backend",
			values: map[string]interface{}{"storage.backend": "redis"},
			errMsg: "unknown backend",
		},
		{
			name:   "storage traversal",
			values: map[string]interface{}{"storage.dir": "../../etc"},
			errMsg: "path traversal detected",
		},
		{
			name:   "dangerous profiles dir",
			values: map[string]interface{}{"libraries.profiles_dir": "profiles`id`"},
			errMsg: "dangerous character",
		},
		{
			name:   "negative ttl",
			values: map[string]interface{}{"enricher.ttl": "-1h"},
			errMsg: "ttl cannot be negative",
		},
		{
			name:   "non http template",
			values: map[string]interface{}{"enricher.fallback_templates": []string{"file:///etc/passwd"}},
			errMsg: "only http/https allowed",
		},
		{
			name:   "empty library id",
			values: map[string]interface{}{"libraries.enabled": []string{"demo", " "}},
			errMsg: "empty library id",
		},
		{
			name:   "bad log level",
			values: map[string]interface{}{"log.level": "loud"},
			errMsg: "unknown log level",
		},
		{
			name:   "bad log format",
			values: map[string]interface{}{"log.format": "xml"},
			errMsg: "unknown format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()

			for key, value := range tt.values {
				viper.Set(key, value)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			var extErr *paletteerrors.ExtLibError
			require.ErrorAs(t, err, &extErr)
			assert.Equal(t, paletteerrors.ErrorTypeConfig, extErr.Type)
			assert.False(t, paletteerrors.IsRecoverable(err))
		})
	}
}
