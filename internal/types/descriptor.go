package types

import (
	"github.com/conneroisu/palette/internal/host"
)

// ScanMode selects how the export scanner treats a module.
type ScanMode string

const (
	// ScanModeDiscover walks the module's exports looking for components.
	ScanModeDiscover ScanMode = "discover"
	// ScanModeIncludeOnly only considers the profile's include paths.
	ScanModeIncludeOnly ScanMode = "include-only"
)

// LibraryDescriptor locates one version of a library. A fresh descriptor is
// built for every load attempt and is never mutated.
type LibraryDescriptor struct {
	LibraryID   string `json:"libraryId"`
	PackageName string `json:"packageName"`
	Version     string `json:"version"`
	Source      string `json:"source"`
	// EntryCandidates are alternate module URLs, most preferred first
	EntryCandidates []string `json:"entryCandidates"`
}

// CacheKey identifies the library version independently of any cache
// busting token embedded in the entry candidates.
func (d LibraryDescriptor) CacheKey() string {
	return d.LibraryID + "|" + d.PackageName + "@" + d.Version
}

// LibraryProfile describes how to load, scan and canonicalize one library.
type LibraryProfile struct {
	ID    string
	Title string

	// Descriptor builds the descriptor for a load attempt
	Descriptor func() LibraryDescriptor

	// IncludePaths are dotted paths that are always considered
	IncludePaths []string
	// ExcludeExports are export names ignored at every nesting level
	ExcludeExports []string
	ScanMode       ScanMode

	Manifest *Manifest

	// ToCanonicalComponents converts scanned paths into canonical components
	ToCanonicalComponents func(module host.Module, paths []string) ([]CanonicalComponent, error)
	// ToGroups derives palette groups from canonical components
	ToGroups func(components []CanonicalComponent) []CanonicalGroup
}

// Manifest is a declarative override table layered on canonicalization
// output.
type Manifest struct {
	// Groups holds group level overrides keyed by group id
	Groups map[string]GroupOverride `json:"groups,omitempty" yaml:"groups,omitempty"`
	// ComponentOverrides holds overrides keyed by component path
	ComponentOverrides map[string]ComponentOverride `json:"componentOverrides,omitempty" yaml:"componentOverrides,omitempty"`
}

// GroupOverride overrides a palette group.
type GroupOverride struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// ComponentOverride overrides one component. Nil slices mean "not provided".
type ComponentOverride struct {
	DisplayName  string         `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	GroupID      string         `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	GroupTitle   string         `json:"groupTitle,omitempty" yaml:"groupTitle,omitempty"`
	DefaultProps map[string]any `json:"defaultProps,omitempty" yaml:"defaultProps,omitempty"`
	CodegenHints map[string]any `json:"codegenHints,omitempty" yaml:"codegenHints,omitempty"`
	SizeOptions  []string       `json:"sizeOptions,omitempty" yaml:"sizeOptions,omitempty"`
	BehaviorTags []string       `json:"behaviorTags,omitempty" yaml:"behaviorTags,omitempty"`
}
