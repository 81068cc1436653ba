package loader

import (
	"context"
	"sync"

	"github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/host"
)

// StaticImporter resolves URLs against modules linked into the process.
type StaticImporter struct {
	modules map[string]host.Module
	mu      sync.RWMutex
}

// NewStaticImporter creates an importer over the given URL table.
func NewStaticImporter(modules map[string]host.Module) *StaticImporter {
	s := &StaticImporter{modules: make(map[string]host.Module, len(modules))}
	for url, m := range modules {
		s.modules[url] = m
	}
	return s
}

// Register makes module importable under url.
func (s *StaticImporter) Register(url string, module host.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[url] = module
}

// Import returns the module registered under url.
func (s *StaticImporter) Import(ctx context.Context, url string) (host.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	module, ok := s.modules[url]
	if !ok {
		return nil, errors.NewIOError(errors.ErrCodeImportFailed, "no module linked at this URL", nil).WithLocation(url)
	}
	return module, nil
}
