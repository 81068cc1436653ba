package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/palette/internal/facade"
	"github.com/conneroisu/palette/internal/types"
)

// setupConfig points every path at a temporary directory and disables
// network enrichment.
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("storage.dir", filepath.Join(dir, "state"))
	viper.Set("loader.plugin_dir", filepath.Join(dir, "plugins"))
	viper.Set("libraries.profiles_dir", filepath.Join(dir, "profiles"))
	viper.Set("enricher.enabled", false)
	viper.Set("log.level", "error")
	return dir
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	librariesFormat, ensureFormat, statusFormat, probeFormat, versionFormat = "table", "table", "table", "table", "text"
	versionDetailed = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLibraries_EnableDisable(t *testing.T) {
	dir := setupConfig(t)

	out, err := executeCommand(t, "libraries", "enable", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "[demo]")

	data, err := os.ReadFile(filepath.Join(dir, "state", facade.KeyEnabled))
	require.NoError(t, err)
	assert.JSONEq(t, `["demo"]`, string(data))

	out, err = executeCommand(t, "libraries", "list", "-f", "json")
	require.NoError(t, err)
	var rows []libraryRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, libraryRow{ID: "demo", Title: "Demo", Package: "@palette/demo@1.0.0", Enabled: true}, rows[0])

	_, err = executeCommand(t, "libraries", "disable", "demo")
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dir, "state", facade.KeyEnabled))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	_, err = executeCommand(t, "libraries", "enable", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown library "ghost"`)
}

func TestLibraries_SeedFromConfig(t *testing.T) {
	setupConfig(t)
	viper.Set("libraries.enabled", []string{"demo"})

	out, err := executeCommand(t, "libraries", "list", "-f", "json")
	require.NoError(t, err)
	var rows []libraryRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Enabled)

	// A persisted list, even an empty one, wins over the seed.
	_, err = executeCommand(t, "libraries", "disable", "demo")
	require.NoError(t, err)
	out, err = executeCommand(t, "libraries", "list", "-f", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.False(t, rows[0].Enabled)
}

func TestLibraries_ProfilesFromDirectory(t *testing.T) {
	dir := setupConfig(t)
	profilesDir := filepath.Join(dir, "profiles")
	require.NoError(t, os.MkdirAll(profilesDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(profilesDir, "acme.yml"), []byte(`
id: acme
title: Acme UI
package: "@acme/ui"
version: 2.1.0
entryCandidates:
  - https://cdn.example.com/{package}@{version}/ui.so
`), 0o640))

	out, err := executeCommand(t, "libraries", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "@acme/ui@2.1.0")
	assert.Contains(t, out, "demo")
}

func TestEnsure(t *testing.T) {
	setupConfig(t)

	out, err := executeCommand(t, "ensure", "demo", "-f", "json")
	require.NoError(t, err)
	var result ensureResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Diagnostics)

	var ids []string
	for _, g := range result.Groups {
		ids = append(ids, g.ID)
	}
	assert.Contains(t, ids, "demo-feedback")

	out, err = executeCommand(t, "ensure", "ghost")
	require.Error(t, err)
	assert.Contains(t, out, "ELIB-1003")
}

func TestStatus(t *testing.T) {
	setupConfig(t)

	_, err := executeCommand(t, "libraries", "enable", "demo")
	require.NoError(t, err)

	out, err := executeCommand(t, "status", "-f", "json")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Libraries, 1)
	assert.True(t, report.Libraries[0].Enabled)
	assert.Equal(t, types.StatusSuccess, report.Libraries[0].Status)
	assert.Equal(t, 9, report.Types)
	assert.Empty(t, report.Diagnostics)

	out, err = executeCommand(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Component libraries")
	assert.Contains(t, out, "9 runtime types registered")
}

func TestProbe(t *testing.T) {
	setupConfig(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/acme@1.0.0/Button.d.ts" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`export interface ButtonProps {
  variant?: 'text' | 'outlined' | 'contained';
  size?: Size;
}
type Size = 'small' | 'large';
`))
	}))
	defer srv.Close()
	viper.Set("enricher.fallback_templates", []string{srv.URL + "/{package}@{version}/{path}.d.ts"})

	out, err := executeCommand(t, "probe", "acme", "1.0.0", "Button", "-f", "json")
	require.NoError(t, err)
	var result probeResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, srv.URL+"/acme@1.0.0/Button.d.ts", result.URL)
	assert.Equal(t, []string{"text", "outlined", "contained"}, result.Options["variant"])
	assert.Equal(t, []string{"small", "large"}, result.Options["size"])

	out, err = executeCommand(t, "probe", "acme", "1.0.0", "Missing")
	require.NoError(t, err)
	assert.Contains(t, out, "No declaration file found")
}

func TestVersion(t *testing.T) {
	setupConfig(t)

	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "palette ")

	out, err = executeCommand(t, "version", "-f", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "go_version")
}

func TestLoadProfiles(t *testing.T) {
	fs := afero.NewMemMapFs()

	pr, err := loadProfiles(fs, "/missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, pr.IDs())

	require.NoError(t, afero.WriteFile(fs, "/profiles/broken.yml", []byte("id: Not Valid\n"), 0o640))
	require.NoError(t, afero.WriteFile(fs, "/profiles/acme.yml", []byte(`
id: acme
package: "@acme/ui"
entryCandidates: ["builtin:acme"]
`), 0o640))

	pr, err = loadProfiles(fs, "/profiles")
	require.Error(t, err)
	require.NotNil(t, pr)
	assert.Equal(t, []string{"demo", "acme"}, pr.IDs())
}

func TestWriteStructured(t *testing.T) {
	var buf bytes.Buffer
	handled, err := writeStructured(&buf, "yaml", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "a: 1\n", buf.String())

	handled, err = writeStructured(&buf, "table", nil)
	assert.NoError(t, err)
	assert.False(t, handled)

	handled, err = writeStructured(&buf, "xml", nil)
	assert.True(t, handled)
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	table := renderTable([]string{"ID", "TITLE"}, [][]string{{"demo", "Demo"}, {"material", "Material UI"}})
	assert.Contains(t, table, "demo      Demo")
	assert.Contains(t, table, "material  Material UI")
}
