package registry

import (
	"sync"

	"github.com/conneroisu/palette/internal/types"
)

// Metadata is what the palette and code generation need to know about a
// component besides the renderable itself.
type Metadata struct {
	LibraryID     string              `json:"libraryId"`
	ComponentName string              `json:"componentName"`
	ItemID        string              `json:"itemId"`
	Path          string              `json:"path"`
	DefaultProps  map[string]any      `json:"defaultProps,omitempty"`
	PropOptions   map[string][]string `json:"propOptions,omitempty"`
	SizeOptions   []string            `json:"sizeOptions,omitempty"`
	BehaviorTags  []string            `json:"behaviorTags,omitempty"`
	CodegenHints  map[string]any      `json:"codegenHints,omitempty"`
	Slots         []string            `json:"slots,omitempty"`
}

func metadataFor(c types.CanonicalComponent) Metadata {
	c = c.Clone()
	return Metadata{
		LibraryID:     c.LibraryID,
		ComponentName: c.ComponentName,
		ItemID:        c.ItemID,
		Path:          c.Path,
		DefaultProps:  c.DefaultProps,
		PropOptions:   c.PropOptions,
		SizeOptions:   c.SizeOptions,
		BehaviorTags:  c.BehaviorTags,
		CodegenHints:  c.CodegenHints,
		Slots:         c.Slots,
	}
}

// MetadataStore maps runtime types to metadata.
type MetadataStore struct {
	mutex   sync.RWMutex
	entries map[string]Metadata
}

// NewMetadataStore creates an empty store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{entries: make(map[string]Metadata)}
}

func (s *MetadataStore) Set(runtimeType string, m Metadata) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries[runtimeType] = m
}

func (s *MetadataStore) Get(runtimeType string) (Metadata, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	m, ok := s.entries[runtimeType]
	return m, ok
}

func (s *MetadataStore) Delete(runtimeType string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.entries, runtimeType)
}

func (s *MetadataStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}
