package manifest

import (
	_ "embed"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/types"
)

//go:embed schema/manifest.schema.json
var manifestSchema []byte

var schema = NewSchema("manifest.schema.json", manifestSchema)

// Validate checks a manifest document against the manifest schema.
func Validate(data []byte) (*ValidationResult, error) {
	return schema.Validate(data)
}

// Parse validates and decodes a YAML manifest document.
func Parse(data []byte) (*types.Manifest, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeManifestInvalid, err.Error())
	}
	if !result.Valid {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeManifestInvalid, result.String())
	}

	var m types.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeManifestInvalid,
			fmt.Sprintf("decoding manifest: %v", err))
	}
	return &m, nil
}

// LoadFile reads and parses the manifest at path.
func LoadFile(fs afero.Fs, path string) (*types.Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, paletteerrors.NewIOError(paletteerrors.ErrCodeFileNotFound, "reading manifest", err).
			WithLocation(path)
	}

	m, err := Parse(data)
	if err != nil {
		if e, ok := err.(*paletteerrors.ExtLibError); ok {
			return nil, e.WithLocation(path)
		}
		return nil, err
	}
	return m, nil
}
