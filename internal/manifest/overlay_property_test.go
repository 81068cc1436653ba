//go:build property
// +build property

package manifest

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/palette/internal/types"
)

// TestOverlayProperties tests invariant properties of the manifest overlay
func TestOverlayProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	paths := gen.SliceOf(gen.RegexMatch(`^[A-Z][a-z]{0,6}$`))
	groupIDs := gen.SliceOf(gen.RegexMatch(`^g[a-z]{0,3}$`))

	// Property 1: every component lands in exactly one group
	properties.Property("components are partitioned", prop.ForAll(
		func(names []string, targets []string) bool {
			comps, m := buildOverlayInput(names, targets)
			total := 0
			for _, g := range ApplyToGroups(comps, nil, m) {
				total += len(g.Items)
			}
			return total == len(comps)
		},
		paths,
		groupIDs,
	))

	// Property 2: no returned group is empty
	properties.Property("no empty groups", prop.ForAll(
		func(names []string, targets []string) bool {
			comps, m := buildOverlayInput(names, targets)
			for _, g := range ApplyToGroups(comps, nil, m) {
				if len(g.Items) == 0 {
					return false
				}
			}
			return true
		},
		paths,
		groupIDs,
	))

	// Property 3: component overlay preserves length and order
	properties.Property("component order preserved", prop.ForAll(
		func(names []string, targets []string) bool {
			comps, m := buildOverlayInput(names, targets)
			out := ApplyToComponents(comps, m)
			if len(out) != len(comps) {
				return false
			}
			for i := range out {
				if out[i].Path != comps[i].Path {
					return false
				}
			}
			return true
		},
		paths,
		groupIDs,
	))

	properties.TestingRun(t)
}

func buildOverlayInput(names, targets []string) ([]types.CanonicalComponent, *types.Manifest) {
	m := &types.Manifest{ComponentOverrides: map[string]types.ComponentOverride{}}
	comps := make([]types.CanonicalComponent, 0, len(names))
	for i, name := range names {
		comps = append(comps, types.CanonicalComponent{
			LibraryID:   "demo",
			Path:        name,
			RuntimeType: "demo:" + name,
		})
		if i < len(targets) {
			m.ComponentOverrides[name] = types.ComponentOverride{GroupID: targets[i]}
		}
	}
	return comps, m
}
