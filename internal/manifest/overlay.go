// Package manifest applies declarative override tables to canonical
// components and their palette groups, and loads those tables from YAML.
//
// Both overlay functions are total: they never fail and never modify their
// inputs.
package manifest

import (
	"github.com/conneroisu/palette/internal/types"
)

// ApplyToComponents applies component overrides keyed by path. Default props
// and codegen hints are merged with the override winning; display name, size
// options and behavior tags are replaced when the override provides them.
func ApplyToComponents(components []types.CanonicalComponent, m *types.Manifest) []types.CanonicalComponent {
	out := make([]types.CanonicalComponent, len(components))
	for i, c := range components {
		override, ok := lookupOverride(m, c.Path)
		if !ok {
			out[i] = c
			continue
		}

		patched := c.Clone()
		patched.DefaultProps = mergeMaps(patched.DefaultProps, override.DefaultProps)
		patched.CodegenHints = mergeMaps(patched.CodegenHints, override.CodegenHints)
		if override.DisplayName != "" {
			patched.ComponentName = override.DisplayName
		}
		if override.SizeOptions != nil {
			patched.SizeOptions = append([]string{}, override.SizeOptions...)
		}
		if override.BehaviorTags != nil {
			patched.BehaviorTags = append([]string{}, override.BehaviorTags...)
		}
		out[i] = patched
	}
	return out
}

// ApplyToGroups rebuilds group membership under m. Without a manifest the
// groups are returned unchanged.
//
// A component lands in the group its override names, else the group it was
// already in, else "<libraryId>-other". Titles prefer the manifest's group
// override, then an override-supplied title, then the existing title, then
// the id. Existing groups keep their order; new groups follow in first
// encountered order. Groups left without items are dropped.
func ApplyToGroups(components []types.CanonicalComponent, groups []types.CanonicalGroup, m *types.Manifest) []types.CanonicalGroup {
	if m == nil {
		return groups
	}

	previousGroup := make(map[string]string)
	existing := make(map[string]types.CanonicalGroup, len(groups))
	order := make([]string, 0, len(groups))
	for _, g := range groups {
		if _, dup := existing[g.ID]; !dup {
			order = append(order, g.ID)
		}
		existing[g.ID] = g
		for _, item := range g.Items {
			if _, seen := previousGroup[componentKey(item)]; !seen {
				previousGroup[componentKey(item)] = g.ID
			}
		}
	}

	items := make(map[string][]types.CanonicalComponent)
	overrideTitles := make(map[string]string)
	var added []string

	for _, c := range components {
		override, hasOverride := lookupOverride(m, c.Path)

		groupID := ""
		if hasOverride && override.GroupID != "" {
			groupID = override.GroupID
			if override.GroupTitle != "" {
				if _, set := overrideTitles[groupID]; !set {
					overrideTitles[groupID] = override.GroupTitle
				}
			}
		} else if prev, ok := previousGroup[componentKey(c)]; ok {
			groupID = prev
		} else {
			groupID = c.LibraryID + "-other"
		}

		if _, known := existing[groupID]; !known {
			if _, seen := items[groupID]; !seen {
				added = append(added, groupID)
			}
		}
		items[groupID] = append(items[groupID], c)
	}

	out := make([]types.CanonicalGroup, 0, len(order)+len(added))
	for _, id := range append(order, added...) {
		members := items[id]
		if len(members) == 0 {
			continue
		}

		g := types.CanonicalGroup{
			ID:     id,
			Source: types.GroupSourceExternal,
			Items:  members,
		}
		if prev, ok := existing[id]; ok {
			g.LibraryID = prev.LibraryID
		}
		if g.LibraryID == "" {
			g.LibraryID = members[0].LibraryID
		}

		switch {
		case m.Groups[id].Title != "":
			g.Title = m.Groups[id].Title
		case overrideTitles[id] != "":
			g.Title = overrideTitles[id]
		case existing[id].Title != "":
			g.Title = existing[id].Title
		default:
			g.Title = id
		}
		out = append(out, g)
	}
	return out
}

func lookupOverride(m *types.Manifest, path string) (types.ComponentOverride, bool) {
	if m == nil || m.ComponentOverrides == nil {
		return types.ComponentOverride{}, false
	}
	override, ok := m.ComponentOverrides[path]
	return override, ok
}

// componentKey identifies a component across the component and group lists.
func componentKey(c types.CanonicalComponent) string {
	if c.RuntimeType != "" {
		return c.RuntimeType
	}
	return c.LibraryID + "\x00" + c.Path
}

func mergeMaps(base, override map[string]any) map[string]any {
	if len(override) == 0 {
		return base
	}
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
