package profiles

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/scanner"
	"github.com/conneroisu/palette/internal/types"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(DemoProfile()))

	other := DemoProfile()
	other.ID = "other"
	require.NoError(t, r.Register(other))

	replacement := DemoProfile()
	replacement.Title = "Replaced"
	require.NoError(t, r.Register(replacement))

	assert.Equal(t, []string{"demo", "other"}, r.IDs())
	got, ok := r.Get("demo")
	require.True(t, ok)
	assert.Equal(t, "Replaced", got.Title)

	r.Unregister("demo")
	r.Unregister("demo")
	_, ok = r.Get("demo")
	assert.False(t, ok)
	assert.Equal(t, []string{"other"}, r.IDs())
	assert.Len(t, r.Profiles(), 1)
}

func TestRegistry_RejectsIncompleteProfiles(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(types.LibraryProfile{}))

	noDescriptor := DemoProfile()
	noDescriptor.Descriptor = nil
	assert.Error(t, r.Register(noDescriptor))

	noCanonicalizer := DemoProfile()
	noCanonicalizer.ToCanonicalComponents = nil
	assert.Error(t, r.Register(noCanonicalizer))

	assert.Empty(t, r.IDs())
}

func TestNaming(t *testing.T) {
	tests := []struct {
		path    string
		display string
		kebab   string
	}{
		{"Button", "Button", "button"},
		{"Form.Item", "Form Item", "form-item"},
		{"Form.ItemGroup", "Form Item Group", "form-item-group"},
		{"HTTPLink", "HTTP Link", "http-link"},
		{"my-lib", "My Lib", "my-lib"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.display, DisplayName(tt.path))
			assert.Equal(t, tt.kebab, Kebab(tt.path))
		})
	}
}

func TestComponents(t *testing.T) {
	module := DemoModule()
	paths := scanner.Scan(module, scanner.OptionsFor(DemoProfile()))
	assert.Equal(t, []string{
		"Alert", "Button", "Dialog", "Form", "Form.Item", "Form.Label",
		"Input", "Layout.Grid", "Layout.Stack",
	}, paths)

	comps, err := DemoProfile().ToCanonicalComponents(module, paths)
	require.NoError(t, err)
	require.Len(t, comps, len(paths))

	item := comps[4]
	assert.Equal(t, "demo:Form.Item", item.RuntimeType)
	assert.Equal(t, "demo-form-item", item.ItemID)
	assert.Equal(t, "Form Item", item.ComponentName)
	assert.Equal(t, types.AdapterProps, item.Adapter.Kind)
	assert.Equal(t, "Form", item.CodegenHints["import"])

	assert.Equal(t, types.AdapterChildren, comps[1].Adapter.Kind)

	_, err = DemoProfile().ToCanonicalComponents(module, []string{"Nope"})
	assert.Error(t, err)
}

func TestGroups(t *testing.T) {
	module := DemoModule()
	paths := scanner.Scan(module, scanner.OptionsFor(DemoProfile()))
	comps, err := DemoProfile().ToCanonicalComponents(module, paths)
	require.NoError(t, err)

	groups := DemoProfile().ToGroups(comps)

	require.Len(t, groups, 3)
	assert.Equal(t, "demo-general", groups[0].ID)
	assert.Equal(t, "Demo", groups[0].Title)
	assert.Len(t, groups[0].Items, 5)
	assert.Equal(t, "demo-form", groups[1].ID)
	assert.Equal(t, "Form", groups[1].Title)
	assert.Equal(t, "demo-layout", groups[2].ID)
	for _, g := range groups {
		assert.Equal(t, types.GroupSourceExternal, g.Source)
		assert.Equal(t, "demo", g.LibraryID)
	}
}

func TestDemoModuleRenders(t *testing.T) {
	button, ok := host.Resolve(DemoModule(), "Button")
	require.True(t, ok)

	c, err := types.Adapter{Kind: types.AdapterChildren}.Bind(button, map[string]any{
		"label":   "<Save>",
		"variant": "contained",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	assert.Equal(t, `<button class="demo-button" data-variant="contained">&lt;Save&gt;</button>`, buf.String())
}

const muiProfile = `
id: mui
title: Material UI
package: "@mui/material"
version: 5.15.0
source: esm.sh
entryCandidates:
  - "https://esm.sh/{package}@{version}?bust={bust}"
  - "https://cdn.jsdelivr.net/npm/{package}@{version}/+esm"
excludeExports: [styled]
manifest: mui.manifest.yml
adapters:
  Button:
    kind: children
`

const muiManifest = `
componentOverrides:
  Button:
    defaultProps:
      variant: contained
`

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/profiles/mui.yml", []byte(muiProfile), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/profiles/mui.manifest.yml", []byte(muiManifest), 0o644))

	profile, err := LoadFile(fs, "/profiles/mui.yml")
	require.NoError(t, err)

	assert.Equal(t, "mui", profile.ID)
	assert.Equal(t, types.ScanModeDiscover, profile.ScanMode)
	assert.Equal(t, []string{"styled"}, profile.ExcludeExports)
	require.NotNil(t, profile.Manifest)
	assert.Equal(t, "contained", profile.Manifest.ComponentOverrides["Button"].DefaultProps["variant"])

	first, second := profile.Descriptor(), profile.Descriptor()
	assert.Equal(t, "@mui/material", first.PackageName)
	assert.Equal(t, "5.15.0", first.Version)
	assert.Equal(t, first.CacheKey(), second.CacheKey())
	assert.True(t, strings.HasPrefix(first.EntryCandidates[0], "https://esm.sh/@mui/material@5.15.0?bust="))
	assert.NotEqual(t, first.EntryCandidates[0], second.EntryCandidates[0], "bust token is fresh per descriptor")
	assert.Equal(t, "https://cdn.jsdelivr.net/npm/@mui/material@5.15.0/+esm", first.EntryCandidates[1])
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "package: x\nentryCandidates: [a]\n"},
		{"no candidates", "id: x\npackage: x\nentryCandidates: []\n"},
		{"bad scan mode", "id: x\npackage: x\nentryCandidates: [a]\nscanMode: everything\n"},
		{"bad version", "id: x\npackage: x\nversion: banana\nentryCandidates: [a]\n"},
		{"bad adapter kind", "id: x\npackage: x\nentryCandidates: [a]\nadapters:\n  Button:\n    kind: magic\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var extErr *paletteerrors.ExtLibError
			require.ErrorAs(t, err, &extErr)
			assert.Equal(t, paletteerrors.ErrCodeProfileInvalid, extErr.Code)
		})
	}
}

func TestParse_Versions(t *testing.T) {
	for _, version := range []string{"latest", "next", "1.2.3", "v5.0.0", "2.0.0-beta.1"} {
		f, err := Parse([]byte("id: x\npackage: x\nversion: " + version + "\nentryCandidates: [a]\n"))
		require.NoError(t, err, version)
		assert.Equal(t, version, f.Version)
	}

	f, err := Parse([]byte("id: x\npackage: x\nentryCandidates: [a]\n"))
	require.NoError(t, err)
	assert.Equal(t, "latest", f.Version)
}

func TestLoadDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/profiles/mui.yml", []byte(muiProfile), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/profiles/mui.manifest.yml", []byte(muiManifest), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/profiles/broken.yaml", []byte("id: Broken\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/profiles/README.md", []byte("# profiles"), 0o644))

	loaded, err := LoadDir(fs, "/profiles")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
	require.Len(t, loaded, 1)
	assert.Equal(t, "mui", loaded[0].ID)

	_, err = LoadDir(fs, "/missing")
	assert.Error(t, err)
}
