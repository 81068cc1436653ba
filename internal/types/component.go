// Package types provides the data model shared by the external library
// pipeline: how a library is located and scanned, the canonical component
// and group records every stage exchanges, and the diagnostics each stage
// reports. This package holds no behaviour beyond small helpers, to avoid
// import cycles between the pipeline packages.
package types

import "time"

// GroupSourceExternal marks groups produced by the external library pipeline.
const GroupSourceExternal = "external"

// CanonicalComponent is the normalized representation of one third-party UI
// element, independent of the library it came from.
type CanonicalComponent struct {
	// LibraryID is the stable key of the library that contributed the component
	LibraryID string `json:"libraryId"`
	// ComponentName is the display name shown in the palette
	ComponentName string `json:"componentName"`
	// Component is the renderable value itself
	Component any `json:"-"`
	// RuntimeType is the globally unique key the renderer looks components up by
	RuntimeType string `json:"runtimeType"`
	// ItemID is the palette key
	ItemID string `json:"itemId"`
	// Path is the dotted export path the component was scanned from
	Path string `json:"path"`
	// Adapter maps editor props onto the component's own props
	Adapter Adapter `json:"adapter"`
	// DefaultProps seeds new instances dropped from the palette
	DefaultProps map[string]any `json:"defaultProps,omitempty"`
	// PropOptions lists the allowed literal values of selectable props
	PropOptions map[string][]string `json:"propOptions,omitempty"`
	// SizeOptions lists the selectable sizes
	SizeOptions []string `json:"sizeOptions,omitempty"`
	// BehaviorTags are free-form capability tags, e.g. "container" or "input"
	BehaviorTags []string `json:"behaviorTags,omitempty"`
	// CodegenHints carry import and naming hints for code generation
	CodegenHints map[string]any `json:"codegenHints,omitempty"`
	// Slots names the child slots the component accepts
	Slots []string `json:"slots,omitempty"`
}

// CanonicalGroup is a palette group, a view over canonical components that is
// rebuilt on every load cycle.
type CanonicalGroup struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Source    string               `json:"source"`
	LibraryID string               `json:"libraryId,omitempty"`
	Items     []CanonicalComponent `json:"items"`
}

// Clone returns a copy of c whose maps and slices can be modified without
// touching the original. The renderable value is shared.
func (c CanonicalComponent) Clone() CanonicalComponent {
	out := c
	out.DefaultProps = cloneAnyMap(c.DefaultProps)
	out.CodegenHints = cloneAnyMap(c.CodegenHints)
	if c.PropOptions != nil {
		out.PropOptions = make(map[string][]string, len(c.PropOptions))
		for k, v := range c.PropOptions {
			out.PropOptions[k] = append([]string(nil), v...)
		}
	}
	out.SizeOptions = cloneStrings(c.SizeOptions)
	out.BehaviorTags = cloneStrings(c.BehaviorTags)
	out.Slots = cloneStrings(c.Slots)
	out.Adapter.Rename = cloneStringMap(c.Adapter.Rename)
	return out
}

// RuntimeStatus is the load status of one library.
type RuntimeStatus string

const (
	StatusIdle    RuntimeStatus = "idle"
	StatusLoading RuntimeStatus = "loading"
	StatusSuccess RuntimeStatus = "success"
	StatusError   RuntimeStatus = "error"
)

// RuntimeState tracks the last load cycle of a library.
type RuntimeState struct {
	LibraryID     string        `json:"libraryId"`
	Status        RuntimeStatus `json:"status"`
	Diagnostics   []Diagnostic  `json:"diagnostics"`
	LastUpdatedAt time.Time     `json:"lastUpdatedAt"`
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
