package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/palette/internal/types"
)

func demoComponents() []types.CanonicalComponent {
	return []types.CanonicalComponent{
		{LibraryID: "demo", ComponentName: "Button", RuntimeType: "demo:Button", Path: "Button",
			DefaultProps: map[string]any{"label": "Button"}},
		{LibraryID: "demo", ComponentName: "Input", RuntimeType: "demo:Input", Path: "Input",
			DefaultProps: map[string]any{"placeholder": "Type here"}},
		{LibraryID: "demo", ComponentName: "Dialog", RuntimeType: "demo:Dialog", Path: "Dialog"},
	}
}

func demoGroups(components []types.CanonicalComponent) []types.CanonicalGroup {
	return []types.CanonicalGroup{
		{ID: "demo-general", Title: "General", Source: types.GroupSourceExternal, LibraryID: "demo",
			Items: []types.CanonicalComponent{components[0], components[1], components[2]}},
	}
}

func TestApplyToComponents(t *testing.T) {
	t.Run("override touches only its own path", func(t *testing.T) {
		in := demoComponents()
		m := &types.Manifest{ComponentOverrides: map[string]types.ComponentOverride{
			"Button": {DefaultProps: map[string]any{"variant": "contained"}},
		}}

		out := ApplyToComponents(in, m)

		require.Len(t, out, 3)
		assert.Equal(t, map[string]any{"label": "Button", "variant": "contained"}, out[0].DefaultProps)
		assert.Equal(t, map[string]any{"placeholder": "Type here"}, out[1].DefaultProps)
		assert.Equal(t, map[string]any{"label": "Button"}, in[0].DefaultProps, "input must not change")
	})

	t.Run("override values win on merge", func(t *testing.T) {
		m := &types.Manifest{ComponentOverrides: map[string]types.ComponentOverride{
			"Button": {
				DisplayName:  "Primary Button",
				DefaultProps: map[string]any{"label": "Go"},
				CodegenHints: map[string]any{"import": "Button"},
				SizeOptions:  []string{"sm", "lg"},
				BehaviorTags: []string{"action"},
			},
		}}

		out := ApplyToComponents(demoComponents(), m)

		assert.Equal(t, "Primary Button", out[0].ComponentName)
		assert.Equal(t, "Go", out[0].DefaultProps["label"])
		assert.Equal(t, map[string]any{"import": "Button"}, out[0].CodegenHints)
		assert.Equal(t, []string{"sm", "lg"}, out[0].SizeOptions)
		assert.Equal(t, []string{"action"}, out[0].BehaviorTags)
	})

	t.Run("empty slices replace existing values", func(t *testing.T) {
		in := demoComponents()
		in[0].SizeOptions = []string{"small"}
		m := &types.Manifest{ComponentOverrides: map[string]types.ComponentOverride{
			"Button": {SizeOptions: []string{}},
		}}

		out := ApplyToComponents(in, m)

		assert.Empty(t, out[0].SizeOptions)
		assert.NotNil(t, out[0].SizeOptions)
		assert.Equal(t, []string{"small"}, in[0].SizeOptions)
	})

	t.Run("nil manifest is identity", func(t *testing.T) {
		in := demoComponents()
		assert.Equal(t, in, ApplyToComponents(in, nil))
	})
}

func TestApplyToGroups(t *testing.T) {
	t.Run("nil manifest returns groups unchanged", func(t *testing.T) {
		comps := demoComponents()
		groups := demoGroups(comps)

		assert.Equal(t, groups, ApplyToGroups(comps, groups, nil))
	})

	t.Run("override moves component to a new group", func(t *testing.T) {
		comps := demoComponents()
		m := &types.Manifest{ComponentOverrides: map[string]types.ComponentOverride{
			"Dialog": {GroupID: "demo-feedback", GroupTitle: "Feedback"},
		}}

		out := ApplyToGroups(comps, demoGroups(comps), m)

		require.Len(t, out, 2)
		assert.Equal(t, "demo-general", out[0].ID)
		assert.Len(t, out[0].Items, 2)

		assert.Equal(t, "demo-feedback", out[1].ID)
		assert.Equal(t, "Feedback", out[1].Title)
		assert.Equal(t, types.GroupSourceExternal, out[1].Source)
		assert.Equal(t, "demo", out[1].LibraryID)
		require.Len(t, out[1].Items, 1)
		assert.Equal(t, "Dialog", out[1].Items[0].Path)
	})

	t.Run("group title precedence", func(t *testing.T) {
		comps := demoComponents()
		m := &types.Manifest{
			Groups: map[string]types.GroupOverride{"demo-feedback": {Title: "Overlays"}},
			ComponentOverrides: map[string]types.ComponentOverride{
				"Dialog": {GroupID: "demo-feedback", GroupTitle: "Feedback"},
			},
		}

		out := ApplyToGroups(comps, demoGroups(comps), m)

		require.Len(t, out, 2)
		assert.Equal(t, "General", out[0].Title)
		assert.Equal(t, "Overlays", out[1].Title)
	})

	t.Run("ungrouped components fall into the other group", func(t *testing.T) {
		comps := demoComponents()
		m := &types.Manifest{}

		out := ApplyToGroups(comps, nil, m)

		require.Len(t, out, 1)
		assert.Equal(t, "demo-other", out[0].ID)
		assert.Equal(t, "demo-other", out[0].Title)
		assert.Len(t, out[0].Items, 3)
	})

	t.Run("emptied groups are dropped", func(t *testing.T) {
		comps := demoComponents()
		groups := []types.CanonicalGroup{
			{ID: "demo-general", Title: "General", LibraryID: "demo", Items: comps[:2]},
			{ID: "demo-overlay", Title: "Overlay", LibraryID: "demo", Items: comps[2:]},
		}
		m := &types.Manifest{ComponentOverrides: map[string]types.ComponentOverride{
			"Dialog": {GroupID: "demo-general"},
		}}

		out := ApplyToGroups(comps, groups, m)

		require.Len(t, out, 1)
		assert.Equal(t, "demo-general", out[0].ID)
		assert.Len(t, out[0].Items, 3)
	})
}
