package manifest

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
)

const validManifest = `
groups:
  demo-feedback:
    title: Feedback
componentOverrides:
  Button:
    displayName: Primary Button
    defaultProps:
      variant: contained
      disabled: false
    sizeOptions: [small, medium, large]
  Form.Item:
    groupId: demo-forms
    groupTitle: Forms
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "Feedback", m.Groups["demo-feedback"].Title)

	button := m.ComponentOverrides["Button"]
	assert.Equal(t, "Primary Button", button.DisplayName)
	assert.Equal(t, "contained", button.DefaultProps["variant"])
	assert.Equal(t, false, button.DefaultProps["disabled"])
	assert.Equal(t, []string{"small", "medium", "large"}, button.SizeOptions)

	item := m.ComponentOverrides["Form.Item"]
	assert.Equal(t, "demo-forms", item.GroupID)
	assert.Equal(t, "Forms", item.GroupTitle)
}

func TestParse_EmptyDocument(t *testing.T) {
	m, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, m.ComponentOverrides)
}

func TestValidate_ReportsIssues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{
			name: "unknown top-level key",
			doc:  "components: {}\n",
		},
		{
			name: "bad group id",
			doc:  "componentOverrides:\n  Button:\n    groupId: Not Valid\n",
			path: "/componentOverrides/Button/groupId",
		},
		{
			name: "size options must be strings",
			doc:  "componentOverrides:\n  Button:\n    sizeOptions: [1, 2]\n",
		},
		{
			name: "unknown override field",
			doc:  "componentOverrides:\n  Button:\n    colour: red\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate([]byte(tt.doc))
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Issues)
			if tt.path != "" {
				assert.Equal(t, tt.path, result.Issues[0].Path)
			}
		})
	}
}

func TestParse_InvalidManifest(t *testing.T) {
	_, err := Parse([]byte("componentOverrides:\n  Button:\n    groupId: Not Valid\n"))
	require.Error(t, err)

	var extErr *paletteerrors.ExtLibError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, paletteerrors.ErrCodeManifestInvalid, extErr.Code)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("componentOverrides: [\n"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/profiles/demo.manifest.yml", []byte(validManifest), 0o644))

	m, err := LoadFile(fs, "/profiles/demo.manifest.yml")
	require.NoError(t, err)
	assert.Contains(t, m.ComponentOverrides, "Button")

	_, err = LoadFile(fs, "/profiles/missing.yml")
	var extErr *paletteerrors.ExtLibError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, paletteerrors.ErrCodeFileNotFound, extErr.Code)
	assert.Equal(t, "/profiles/missing.yml", extErr.Location)
}
