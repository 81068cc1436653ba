package profiles

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/manifest"
	"github.com/conneroisu/palette/internal/types"
)

//go:embed schema/profile.schema.json
var profileSchema []byte

var schema = manifest.NewSchema("profile.schema.json", profileSchema)

// Version tags accepted in place of a semantic version.
var versionTags = map[string]bool{"latest": true, "next": true}

// File is the YAML form of a library profile.
type File struct {
	ID              string                   `yaml:"id"`
	Title           string                   `yaml:"title"`
	Package         string                   `yaml:"package"`
	Version         string                   `yaml:"version"`
	Source          string                   `yaml:"source"`
	EntryCandidates []string                 `yaml:"entryCandidates"`
	IncludePaths    []string                 `yaml:"includePaths"`
	ExcludeExports  []string                 `yaml:"excludeExports"`
	ScanMode        types.ScanMode           `yaml:"scanMode"`
	Manifest        string                   `yaml:"manifest"`
	Adapters        map[string]types.Adapter `yaml:"adapters"`
}

// Parse validates and decodes a YAML profile document.
func Parse(data []byte) (*File, error) {
	result, err := schema.Validate(data)
	if err != nil {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeProfileInvalid, err.Error())
	}
	if !result.Valid {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeProfileInvalid, result.String())
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeProfileInvalid,
			fmt.Sprintf("decoding profile: %v", err))
	}
	if f.ScanMode == "" {
		f.ScanMode = types.ScanModeDiscover
	}
	if f.Version == "" {
		f.Version = "latest"
	}
	if err := validateVersion(f.Version); err != nil {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeProfileInvalid, err.Error()).
			WithLibrary(f.ID)
	}
	return &f, nil
}

func validateVersion(version string) error {
	if versionTags[version] {
		return nil
	}
	if _, err := semver.StrictNewVersion(strings.TrimPrefix(version, "v")); err != nil {
		return fmt.Errorf("version %q is neither a semantic version nor one of latest, next: %w", version, err)
	}
	return nil
}

// Profile turns the file into a library profile. m is the manifest the
// file references, if any.
func (f *File) Profile(m *types.Manifest) types.LibraryProfile {
	candidates := append([]string{}, f.EntryCandidates...)
	id, pkg, version, source := f.ID, f.Package, f.Version, f.Source

	return types.LibraryProfile{
		ID:    f.ID,
		Title: f.Title,
		Descriptor: func() types.LibraryDescriptor {
			bust := uuid.NewString()
			urls := make([]string, len(candidates))
			for i, c := range candidates {
				urls[i] = expandCandidate(c, pkg, version, bust)
			}
			return types.LibraryDescriptor{
				LibraryID:       id,
				PackageName:     pkg,
				Version:         version,
				Source:          source,
				EntryCandidates: urls,
			}
		},
		IncludePaths:          append([]string{}, f.IncludePaths...),
		ExcludeExports:        append([]string{}, f.ExcludeExports...),
		ScanMode:              f.ScanMode,
		Manifest:              m,
		ToCanonicalComponents: Components(f.ID, f.Adapters),
		ToGroups:              Groups(f.ID, f.Title),
	}
}

func expandCandidate(candidate, pkg, version, bust string) string {
	return strings.NewReplacer(
		"{package}", pkg,
		"{version}", version,
		"{bust}", bust,
	).Replace(candidate)
}

// LoadFile reads the profile at path together with the manifest it
// references. Manifest paths are relative to the profile file.
func LoadFile(fs afero.Fs, path string) (types.LibraryProfile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return types.LibraryProfile{}, paletteerrors.NewIOError(paletteerrors.ErrCodeFileNotFound, "reading profile", err).
			WithLocation(path)
	}

	f, err := Parse(data)
	if err != nil {
		var extErr *paletteerrors.ExtLibError
		if stderrors.As(err, &extErr) {
			return types.LibraryProfile{}, extErr.WithLocation(path)
		}
		return types.LibraryProfile{}, err
	}

	var m *types.Manifest
	if f.Manifest != "" {
		manifestPath := f.Manifest
		if !filepath.IsAbs(manifestPath) {
			manifestPath = filepath.Join(filepath.Dir(path), manifestPath)
		}
		if m, err = manifest.LoadFile(fs, manifestPath); err != nil {
			return types.LibraryProfile{}, err
		}
	}
	return f.Profile(m), nil
}

// LoadDir loads every profile in dir. Files ending in .manifest.yml or
// .manifest.yaml are manifests and are skipped. Profiles that fail to load
// are reported in the joined error; the rest are still returned.
func LoadDir(fs afero.Fs, dir string) ([]types.LibraryProfile, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, paletteerrors.NewIOError(paletteerrors.ErrCodeFileNotFound, "reading profiles directory", err).
			WithLocation(dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isProfileFile(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var profiles []types.LibraryProfile
	var errs []error
	for _, name := range names {
		profile, err := LoadFile(fs, filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, stderrors.Join(errs...)
}

func isProfileFile(name string) bool {
	ext := filepath.Ext(name)
	if ext != ".yml" && ext != ".yaml" {
		return false
	}
	return !strings.HasSuffix(strings.TrimSuffix(name, ext), ".manifest")
}
