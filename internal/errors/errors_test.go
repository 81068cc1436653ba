package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/palette/internal/types"
)

func TestExtLibError_Error(t *testing.T) {
	err := NewIOError(ErrCodeStorageFailed, "write failed", fmt.Errorf("disk full")).
		WithLibrary("mui").
		WithLocation("/tmp/cache")

	assert.Equal(t, "[ERR_STORAGE_FAILED] library:mui /tmp/cache write failed: disk full", err.Error())
	assert.True(t, IsRecoverable(err))
}

func TestExtLibError_IsAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewNetworkError(ErrCodeFetchFailed, "fetch", cause)
	wrapped := fmt.Errorf("outer: %w", err)

	assert.True(t, errors.Is(wrapped, &ExtLibError{Type: ErrorTypeNetwork, Code: ErrCodeFetchFailed}))
	assert.False(t, errors.Is(wrapped, &ExtLibError{Type: ErrorTypeIO, Code: ErrCodeFetchFailed}))
	assert.ErrorIs(t, wrapped, cause)
	assert.False(t, IsRecoverable(NewConfigError(ErrCodeConfigInvalid, "bad")))
}

func TestLoadFailed(t *testing.T) {
	d := LoadFailed("mui", []string{"a: 404", "b: timeout"})
	assert.Equal(t, CodeLoadFailed, d.Code)
	assert.Equal(t, types.LevelError, d.Level)
	assert.Equal(t, types.StageLoad, d.Stage)
	assert.True(t, d.Retryable)
	assert.Equal(t, "a: 404; b: timeout", d.Hint)

	empty := LoadFailed("mui", nil)
	assert.Equal(t, "no entry candidates", empty.Hint)
}

func TestDiagnosticConstructors(t *testing.T) {
	tests := []struct {
		name      string
		diag      types.Diagnostic
		code      string
		level     types.DiagnosticLevel
		stage     types.DiagnosticStage
		retryable bool
	}{
		{"alias conflict", AliasConflict("x", []string{"k"}), CodeAliasConflict, types.LevelWarning, types.StageLoad, false},
		{"profile missing", ProfileMissing("x"), CodeProfileMissing, types.LevelError, types.StageLoad, false},
		{"scan empty", ScanEmpty("x"), CodeScanEmpty, types.LevelError, types.StageScan, true},
		{"duplicate", DuplicateRuntimeType("x", "x:Button", "Button"), CodeDuplicateType, types.LevelWarning, types.StageRegister, false},
		{"nothing registered", NothingRegistered("x", 3), CodeNothingRegistered, types.LevelError, types.StageRegister, true},
		{"unexpected", Unexpected("x", "kaput"), CodeUnexpected, types.LevelError, types.StageLoad, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.diag.Code)
			assert.Equal(t, tt.level, tt.diag.Level)
			assert.Equal(t, tt.stage, tt.diag.Stage)
			assert.Equal(t, tt.retryable, tt.diag.Retryable)
			assert.Equal(t, "x", tt.diag.LibraryID)
		})
	}

	assert.Equal(t, "kaput", Unexpected("x", "kaput").Hint)
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.Empty(t, c.Diagnostics())
	assert.False(t, c.HasErrors())

	c.Add(AliasConflict("x", nil))
	assert.False(t, c.HasErrors())

	c.Add(ScanEmpty("x"), NothingRegistered("x", 1))
	require.Equal(t, 3, c.Len())
	assert.True(t, c.HasErrors())

	got := c.Diagnostics()
	got[0].Code = "mutated"
	assert.Equal(t, CodeAliasConflict, c.Diagnostics()[0].Code)
}
