// Package registry holds the components and palette groups contributed by
// external libraries, keyed by runtime type, together with the bookkeeping
// needed to retract a library's contribution in one call.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/a-h/templ"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/metrics"
	"github.com/conneroisu/palette/internal/types"
)

// Entry is an installed component.
type Entry struct {
	RuntimeType string
	LibraryID   string
	Path        string
	Component   any
	Adapter     types.Adapter
}

// Event represents a change in the registry
type Event struct {
	Type        EventType
	RuntimeType string
	GroupID     string
	LibraryID   string
	Timestamp   time.Time
}

// EventType represents the type of registry event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeRemoved
	EventTypeGroupsChanged
)

func (t EventType) String() string {
	switch t {
	case EventTypeAdded:
		return "added"
	case EventTypeRemoved:
		return "removed"
	case EventTypeGroupsChanged:
		return "groups_changed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Registry is the component registry. The zero value is not usable; build
// one with New.
type Registry struct {
	mutex sync.RWMutex

	components map[string]*Entry
	groups     map[string]types.CanonicalGroup
	groupOrder []string

	libraryTypes  map[string]map[string]struct{}
	libraryGroups map[string]map[string]struct{}

	metadata *MetadataStore
	metrics  *metrics.Metrics
	watchers []chan Event
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics reports the registered type count to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithMetadataStore shares store instead of a private one.
func WithMetadataStore(store *MetadataStore) Option {
	return func(r *Registry) { r.metadata = store }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		components:    make(map[string]*Entry),
		groups:        make(map[string]types.CanonicalGroup),
		libraryTypes:  make(map[string]map[string]struct{}),
		libraryGroups: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metadata == nil {
		r.metadata = NewMetadataStore()
	}
	return r
}

// RegisterComponents installs components in order. The first occurrence of
// a runtime type wins; later ones, including those already owned by another
// library, are skipped with a warning. A non-empty input of which nothing
// could be installed yields one error diagnostic.
func (r *Registry) RegisterComponents(components []types.CanonicalComponent) []types.Diagnostic {
	if len(components) == 0 {
		return nil
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	var diagnostics []types.Diagnostic
	var events []Event
	registered := 0
	now := time.Now()

	for _, c := range components {
		if c.RuntimeType == "" || c.Component == nil {
			continue
		}
		if _, exists := r.components[c.RuntimeType]; exists {
			diagnostics = append(diagnostics, paletteerrors.DuplicateRuntimeType(c.LibraryID, c.RuntimeType, c.Path))
			continue
		}

		r.components[c.RuntimeType] = &Entry{
			RuntimeType: c.RuntimeType,
			LibraryID:   c.LibraryID,
			Path:        c.Path,
			Component:   c.Component,
			Adapter:     c.Adapter,
		}
		owned := r.libraryTypes[c.LibraryID]
		if owned == nil {
			owned = make(map[string]struct{})
			r.libraryTypes[c.LibraryID] = owned
		}
		owned[c.RuntimeType] = struct{}{}
		r.metadata.Set(c.RuntimeType, metadataFor(c))

		registered++
		events = append(events, Event{
			Type:        EventTypeAdded,
			RuntimeType: c.RuntimeType,
			LibraryID:   c.LibraryID,
			Timestamp:   now,
		})
	}

	if registered == 0 {
		diagnostics = append(diagnostics, paletteerrors.NothingRegistered(components[0].LibraryID, len(components)))
	}

	r.metrics.RegisteredTypes(len(r.components))
	r.notify(events...)
	return diagnostics
}

// RegisterGroups installs the palette groups of libraryID, replacing any it
// registered before. Items that are not installed under libraryID are left
// out, and groups left without items are skipped.
func (r *Registry) RegisterGroups(libraryID string, groups []types.CanonicalGroup) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.removeGroupsLocked(libraryID)

	owned := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		items := make([]types.CanonicalComponent, 0, len(g.Items))
		for _, item := range g.Items {
			if entry, ok := r.components[item.RuntimeType]; ok && entry.LibraryID == libraryID {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}

		if previous, exists := r.groups[g.ID]; exists {
			delete(r.libraryGroups[previous.LibraryID], g.ID)
		} else {
			r.groupOrder = append(r.groupOrder, g.ID)
		}

		g.LibraryID = libraryID
		g.Items = items
		if g.Source == "" {
			g.Source = types.GroupSourceExternal
		}
		r.groups[g.ID] = g
		owned[g.ID] = struct{}{}
	}
	if len(owned) > 0 {
		r.libraryGroups[libraryID] = owned
	}

	r.notify(Event{Type: EventTypeGroupsChanged, LibraryID: libraryID, Timestamp: time.Now()})
}

// ClearLibrary retracts every component, group and metadata record
// contributed by libraryID. Clearing an unknown library is a no-op.
func (r *Registry) ClearLibrary(libraryID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	owned, hadTypes := r.libraryTypes[libraryID]
	_, hadGroups := r.libraryGroups[libraryID]
	if !hadTypes && !hadGroups {
		return
	}

	now := time.Now()
	events := make([]Event, 0, len(owned)+1)
	for runtimeType := range owned {
		delete(r.components, runtimeType)
		r.metadata.Delete(runtimeType)
		events = append(events, Event{
			Type:        EventTypeRemoved,
			RuntimeType: runtimeType,
			LibraryID:   libraryID,
			Timestamp:   now,
		})
	}
	delete(r.libraryTypes, libraryID)

	if hadGroups {
		r.removeGroupsLocked(libraryID)
		events = append(events, Event{Type: EventTypeGroupsChanged, LibraryID: libraryID, Timestamp: now})
	}

	r.metrics.RegisteredTypes(len(r.components))
	r.notify(events...)
}

func (r *Registry) removeGroupsLocked(libraryID string) {
	owned, ok := r.libraryGroups[libraryID]
	if !ok {
		return
	}
	for id := range owned {
		delete(r.groups, id)
	}
	delete(r.libraryGroups, libraryID)

	order := r.groupOrder[:0]
	for _, id := range r.groupOrder {
		if _, exists := r.groups[id]; exists {
			order = append(order, id)
		}
	}
	r.groupOrder = order
}

// Lookup returns the entry installed under runtimeType.
func (r *Registry) Lookup(runtimeType string) (*Entry, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, ok := r.components[runtimeType]
	if !ok {
		return nil, false
	}
	copied := *entry
	return &copied, true
}

// Render binds the component installed under runtimeType to props.
func (r *Registry) Render(runtimeType string, props map[string]any) (templ.Component, error) {
	entry, ok := r.Lookup(runtimeType)
	if !ok {
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeComponentMissing,
			fmt.Sprintf("no component registered as %q", runtimeType))
	}
	if props == nil {
		if meta, ok := r.metadata.Get(runtimeType); ok {
			props = meta.DefaultProps
		}
	}
	return entry.Adapter.Bind(entry.Component, props)
}

// Groups returns every registered group in registration order.
func (r *Registry) Groups() []types.CanonicalGroup {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]types.CanonicalGroup, 0, len(r.groupOrder))
	for _, id := range r.groupOrder {
		out = append(out, r.groups[id])
	}
	return out
}

// Group returns the group registered under id.
func (r *Registry) Group(id string) (types.CanonicalGroup, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	g, ok := r.groups[id]
	return g, ok
}

// Metadata returns the palette metadata of runtimeType.
func (r *Registry) Metadata(runtimeType string) (Metadata, bool) {
	return r.metadata.Get(runtimeType)
}

// LibraryIDs returns the sorted ids of libraries that currently own a
// component or group.
func (r *Registry) LibraryIDs() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	seen := make(map[string]struct{}, len(r.libraryTypes)+len(r.libraryGroups))
	for id := range r.libraryTypes {
		seen[id] = struct{}{}
	}
	for id := range r.libraryGroups {
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RuntimeTypes returns the sorted runtime types owned by libraryID.
func (r *Registry) RuntimeTypes(libraryID string) []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]string, 0, len(r.libraryTypes[libraryID]))
	for rt := range r.libraryTypes[libraryID] {
		out = append(out, rt)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered components
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}

// Watch returns a channel that receives registry events
func (r *Registry) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *Registry) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify must be called with the write lock held.
func (r *Registry) notify(events ...Event) {
	for _, event := range events {
		for _, watcher := range r.watchers {
			select {
			case watcher <- event:
			default:
				// Skip if channel is full
			}
		}
	}
}
