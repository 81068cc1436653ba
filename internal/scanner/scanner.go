// Package scanner discovers which exports of a loaded module are usable UI
// components. It returns dotted paths such as "Button" or "Form.Item" and
// leaves conversion to canonical components to the library's profile.
package scanner

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/types"
)

// Options controls a scan.
type Options struct {
	// IncludePaths are dotted paths that are always considered
	IncludePaths []string
	// ExcludeExports are export names ignored at every nesting level
	ExcludeExports []string
	// Discover walks the module's exports in addition to IncludePaths
	Discover bool
}

// OptionsFor builds scan options from a profile.
func OptionsFor(profile types.LibraryProfile) Options {
	return Options{
		IncludePaths:   profile.IncludePaths,
		ExcludeExports: profile.ExcludeExports,
		Discover:       profile.ScanMode != types.ScanModeIncludeOnly,
	}
}

// Scan returns the component paths of module in a stable order: include
// paths first, then discovered top-level exports sorted by name, each
// followed by its own discovered members. Every returned path resolves to a
// renderable value. Pure namespaces, which only group members, are never
// returned in either mode; their members still are.
func Scan(module host.Module, opts Options) []string {
	if module == nil {
		return nil
	}

	excluded := make(map[string]struct{}, len(opts.ExcludeExports))
	for _, name := range opts.ExcludeExports {
		excluded[name] = struct{}{}
	}

	seen := make(map[string]struct{})
	candidates := make([]string, 0, len(opts.IncludePaths))
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		candidates = append(candidates, path)
	}

	for _, path := range opts.IncludePaths {
		add(path)
	}

	if opts.Discover {
		for _, name := range sortedKeys(module) {
			value := module[name]
			if !qualifies(name, value, excluded) {
				continue
			}
			add(name)

			members, ok := host.Members(value)
			if !ok {
				continue
			}
			for _, member := range sortedKeys(members) {
				if qualifies(member, members[member], excluded) {
					add(name + "." + member)
				}
			}
		}
	}

	paths := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if isComponent(module, path) {
			paths = append(paths, path)
		}
	}
	return paths
}

func isComponent(module host.Module, path string) bool {
	value, ok := host.Resolve(module, path)
	return ok && host.IsRenderable(value) && !host.IsNamespace(value)
}

// qualifies applies the discovery test to one export: an upper-case name
// that is not excluded and a renderable value.
func qualifies(name string, value any, excluded map[string]struct{}) bool {
	if !isUpperName(name) {
		return false
	}
	if _, ok := excluded[name]; ok {
		return false
	}
	return host.IsRenderable(value)
}

func isUpperName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
