// Package host models the values a loaded component module exposes to the
// palette and the runtime tables shared between the host and the modules it
// loads.
//
// A module is an export table. Exported values are deliberately untyped:
// IsRenderable is the only place that decides whether an arbitrary value can
// stand in for a UI component.
package host

import (
	"reflect"
	"strings"

	"github.com/a-h/templ"
)

// Module is the export table of a loaded component module.
type Module map[string]any

// ComponentFunc builds a component from a property bag.
type ComponentFunc func(props map[string]any) templ.Component

// Compound is a renderable export that also carries member exports, such as
// a Form whose items are exported as Form.Item.
type Compound struct {
	// Component is the renderable value of the compound itself. It may be nil
	// for pure namespaces.
	Component any
	// Members holds the member exports keyed by name.
	Members map[string]any
}

// IsRenderable reports whether v looks like something a renderer could draw:
// a templ component, any non-nil function, a compound, or a non-nil
// object-like value (map, pointer or struct). Scalars, strings and slices are
// never renderable.
func IsRenderable(v any) bool {
	if v == nil {
		return false
	}

	switch c := v.(type) {
	case templ.Component:
		return true
	case ComponentFunc:
		return c != nil
	case Compound:
		return true
	case *Compound:
		return c != nil
	case Module:
		return c != nil
	case map[string]any:
		return c != nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Map, reflect.Pointer:
		return !rv.IsNil()
	case reflect.Struct:
		return true
	default:
		return false
	}
}

// Members returns the own member exports of v. Only modules, string keyed
// maps and compounds have members.
func Members(v any) (map[string]any, bool) {
	switch c := v.(type) {
	case Module:
		return c, c != nil
	case map[string]any:
		return c, c != nil
	case Compound:
		return c.Members, c.Members != nil
	case *Compound:
		if c == nil || c.Members == nil {
			return nil, false
		}
		return c.Members, true
	default:
		return nil, false
	}
}

// Resolve walks a dotted path such as "Form.Item" through the module and its
// members. It reports false when any segment is missing or nil.
func Resolve(m Module, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	current, ok := m[segments[0]]
	if !ok {
		return nil, false
	}

	for _, segment := range segments[1:] {
		members, ok := Members(current)
		if !ok {
			return nil, false
		}
		current, ok = members[segment]
		if !ok {
			return nil, false
		}
	}

	return current, current != nil
}

// ResolveRenderable resolves path and checks the result with IsRenderable.
func ResolveRenderable(m Module, path string) bool {
	v, ok := Resolve(m, path)
	return ok && IsRenderable(v)
}

// Own returns the renderable value of an export, unwrapping compounds.
func Own(v any) any {
	switch c := v.(type) {
	case Compound:
		return c.Component
	case *Compound:
		if c == nil {
			return nil
		}
		return c.Component
	default:
		return v
	}
}

// IsNamespace reports whether v only groups member exports and has no
// renderable value of its own.
func IsNamespace(v any) bool {
	switch c := v.(type) {
	case Module, map[string]any:
		return true
	case Compound:
		return c.Component == nil
	case *Compound:
		return c != nil && c.Component == nil
	default:
		return false
	}
}
