package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", ".palette/state", false},
		{"absolute", "/var/lib/palette", false},
		{"home", "/home/dev/.palette", false},
		{"empty", "", true},
		{"traversal", "../../etc", true},
		{"nested traversal", "a/../../b", true},
		{"system dir", "/etc/palette", true},
		{"system dir itself", "/proc", true},
		{"similar prefix", "/etcetera/palette", false},
		{"pipe", "state|rm", true},
		{"variable", "$HOME/state", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://unpkg.com/@mui/material@5.0.0/Button/Button.d.ts", false},
		{"template", "https://cdn.jsdelivr.net/npm/{package}@{version}/{path}.d.ts", false},
		{"local http", "http://127.0.0.1:8080/x.so", false},
		{"file scheme", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"no host", "https:///path", true},
		{"space", "https://example.com/a b", true},
		{"injection", "https://example.com/`id`", true},
		{"relative", "/only/a/path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOrigin(t *testing.T) {
	allowed := []string{"http://localhost:8080", "palette.example.com"}

	tests := []struct {
		name    string
		origin  string
		allowed []string
		wantErr bool
	}{
		{"exact origin", "http://localhost:8080", allowed, false},
		{"bare host", "https://palette.example.com", allowed, false},
		{"other port", "http://localhost:3000", allowed, true},
		{"foreign", "https://evil.example", allowed, true},
		{"empty", "", allowed, true},
		{"bad scheme", "ftp://localhost:8080", allowed, true},
		{"wildcard", "https://anything.example", []string{"*"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrigin(tt.origin, tt.allowed)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
