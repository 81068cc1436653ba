package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{"no commit", BuildInfo{Version: "dev", GitCommit: "unknown"}, "dev"},
		{"short commit", BuildInfo{Version: "v1.0.0", GitCommit: "abc"}, "v1.0.0"},
		{"commit", BuildInfo{Version: "v1.0.0", GitCommit: "abcdef0123"}, "v1.0.0 (abcdef0)"},
		{"dirty", BuildInfo{Version: "dev", GitCommit: "abcdef0123", Dirty: true}, "dev (abcdef0-dirty)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Short())
		})
	}
}

func TestString(t *testing.T) {
	info := BuildInfo{
		Version:   "v1.0.0",
		GitCommit: "abcdef0",
		BuildTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
	}
	assert.Equal(t, "Version: v1.0.0\nCommit: abcdef0\nBuilt: 2026-01-02T03:04:05Z\nGo: go1.24.4\nPlatform: linux/amd64", info.String())
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, 2026, parseTime("2026-01-02T03:04:05Z").Year())
	assert.Equal(t, 5, parseTime("2026-01-02 03:04:05").Second())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
