package errors

import (
	"fmt"
	"strings"
	"sync"

	"github.com/conneroisu/palette/internal/types"
)

// Diagnostic codes reported by the pipeline. Codes are stable identifiers;
// UIs key help text and retry affordances off them.
const (
	CodeLoadFailed        = "ELIB-1001"
	CodeAliasConflict     = "ELIB-1002"
	CodeProfileMissing    = "ELIB-1003"
	CodeScanEmpty         = "ELIB-2001"
	CodeDuplicateType     = "ELIB-3001"
	CodeNothingRegistered = "ELIB-3002"
	CodeUnexpected        = "ELIB-9001"
)

// LoadFailed reports that every entry candidate of a library failed. The
// hint joins each individual failure.
func LoadFailed(libraryID string, failures []string) types.Diagnostic {
	hint := strings.Join(failures, "; ")
	if hint == "" {
		hint = "no entry candidates"
	}
	return types.Diagnostic{
		Code:      CodeLoadFailed,
		Level:     types.LevelError,
		Stage:     types.StageLoad,
		Message:   fmt.Sprintf("failed to load library %q from any entry candidate", libraryID),
		Hint:      hint,
		Retryable: true,
		LibraryID: libraryID,
	}
}

// AliasConflict reports that a foreign alias table disagrees with the
// aliases the host expects. Loading continues.
func AliasConflict(libraryID string, keys []string) types.Diagnostic {
	return types.Diagnostic{
		Code:      CodeAliasConflict,
		Level:     types.LevelWarning,
		Stage:     types.StageLoad,
		Message:   "shared runtime alias table was installed by someone else and disagrees with the host",
		Hint:      "conflicting aliases: " + strings.Join(keys, ", "),
		LibraryID: libraryID,
	}
}

// ProfileMissing reports an enabled library id with no registered profile.
func ProfileMissing(libraryID string) types.Diagnostic {
	return types.Diagnostic{
		Code:      CodeProfileMissing,
		Level:     types.LevelError,
		Stage:     types.StageLoad,
		Message:   fmt.Sprintf("no profile registered for library %q", libraryID),
		Hint:      "register a profile or remove the library from the enabled list",
		LibraryID: libraryID,
	}
}

// ScanEmpty reports a scan that produced no candidate paths.
func ScanEmpty(libraryID string) types.Diagnostic {
	return types.Diagnostic{
		Code:      CodeScanEmpty,
		Level:     types.LevelError,
		Stage:     types.StageScan,
		Message:   fmt.Sprintf("no component exports found in library %q", libraryID),
		Hint:      "the profile may not match this library version",
		Retryable: true,
		LibraryID: libraryID,
	}
}

// DuplicateRuntimeType reports a component skipped because its runtime type
// is already taken.
func DuplicateRuntimeType(libraryID, runtimeType, path string) types.Diagnostic {
	return types.Diagnostic{
		Code:      CodeDuplicateType,
		Level:     types.LevelWarning,
		Stage:     types.StageRegister,
		Message:   fmt.Sprintf("runtime type %q is already registered; skipped %q", runtimeType, path),
		LibraryID: libraryID,
	}
}

// NothingRegistered reports that none of the scanned components survived
// registration.
func NothingRegistered(libraryID string, attempted int) types.Diagnostic {
	return types.Diagnostic{
		Code:      CodeNothingRegistered,
		Level:     types.LevelError,
		Stage:     types.StageRegister,
		Message:   fmt.Sprintf("none of %d scanned components could be registered", attempted),
		Hint:      "the scan produced nothing usable",
		Retryable: true,
		LibraryID: libraryID,
	}
}

// Unexpected wraps any failure that escaped the pipeline stages.
func Unexpected(libraryID string, failure any) types.Diagnostic {
	return types.Diagnostic{
		Code:      CodeUnexpected,
		Level:     types.LevelError,
		Stage:     types.StageLoad,
		Message:   "unexpected failure while loading library",
		Hint:      fmt.Sprint(failure),
		Retryable: true,
		LibraryID: libraryID,
	}
}

// Collector accumulates the diagnostics of one load cycle.
type Collector struct {
	diagnostics []types.Diagnostic
	mutex       sync.Mutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends diagnostics in order.
func (c *Collector) Add(diagnostics ...types.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = append(c.diagnostics, diagnostics...)
}

// Diagnostics returns a copy of the collected diagnostics.
func (c *Collector) Diagnostics() []types.Diagnostic {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return types.CloneDiagnostics(c.diagnostics)
}

// HasErrors returns true if an error level diagnostic was collected.
func (c *Collector) HasErrors() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return types.HasErrors(c.diagnostics)
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.diagnostics)
}
