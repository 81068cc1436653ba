// Package loader fetches remote component modules.
//
// The Loader installs the shared runtime alias table once, then tries a
// descriptor's entry candidates strictly in order through an Importer. The
// first candidate that imports wins. When every candidate fails the Loader
// reports a single retryable diagnostic instead of an error.
package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/logging"
	"github.com/conneroisu/palette/internal/types"
)

// Importer is the host's dynamic import mechanism.
type Importer interface {
	Import(ctx context.Context, url string) (host.Module, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(ctx context.Context, url string) (host.Module, error)

// Import calls f.
func (f ImporterFunc) Import(ctx context.Context, url string) (host.Module, error) {
	return f(ctx, url)
}

// Loader loads modules for library descriptors.
type Loader struct {
	importer Importer
	aliases  map[string]string
	logger   logging.Logger

	aliasOnce      sync.Once
	aliasConflicts []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithAliases overrides the alias table the loader installs.
func WithAliases(aliases map[string]string) Option {
	return func(l *Loader) {
		l.aliases = aliases
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader that imports through importer.
func New(importer Importer, opts ...Option) *Loader {
	l := &Loader{
		importer: importer,
		aliases:  host.DefaultAliases,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithComponent("loader")
	return l
}

// Load imports the first entry candidate of d that resolves. It returns a
// nil module and a retryable diagnostic when all candidates fail.
func (l *Loader) Load(ctx context.Context, d types.LibraryDescriptor) (host.Module, []types.Diagnostic) {
	var diagnostics []types.Diagnostic

	l.aliasOnce.Do(func() {
		l.aliasConflicts = host.InstallAliases(l.aliases)
	})
	if len(l.aliasConflicts) > 0 {
		diagnostics = append(diagnostics, errors.AliasConflict(d.LibraryID, l.aliasConflicts))
	}

	failures := make([]string, 0, len(d.EntryCandidates))
	for _, candidate := range d.EntryCandidates {
		module, err := l.importOne(ctx, candidate)
		if err == nil {
			l.logger.Debug(ctx, "Imported module", "library_id", d.LibraryID, "url", candidate, "exports", len(module))
			return module, diagnostics
		}
		l.logger.Warn(ctx, err, "Entry candidate failed", "library_id", d.LibraryID, "url", candidate)
		failures = append(failures, fmt.Sprintf("%s: %v", candidate, err))
	}

	return nil, append(diagnostics, errors.LoadFailed(d.LibraryID, failures))
}

func (l *Loader) importOne(ctx context.Context, url string) (module host.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			module = nil
			err = fmt.Errorf("import panicked: %v", r)
		}
	}()

	module, err = l.importer.Import(ctx, url)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, fmt.Errorf("module has no exports")
	}
	return module, nil
}
