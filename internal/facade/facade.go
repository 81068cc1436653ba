// Package facade is what user interfaces talk to. It owns the persisted set
// of enabled libraries, reruns the engine when that set changes, and keeps
// the latest diagnostics and loading flag for subscribers.
package facade

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/events"
	"github.com/conneroisu/palette/internal/logging"
	"github.com/conneroisu/palette/internal/storage"
	"github.com/conneroisu/palette/internal/types"
)

// KeyEnabled is the storage key of the enabled library list.
const KeyEnabled = "extlib.enabled"

// Engine runs load cycles.
type Engine interface {
	Ensure(ctx context.Context, profile types.LibraryProfile) []types.Diagnostic
	EnsureAll(ctx context.Context, ids []string) []types.Diagnostic
	States() []types.RuntimeState
}

// Profiles lists the libraries that can be enabled.
type Profiles interface {
	Get(id string) (types.LibraryProfile, bool)
	Profiles() []types.LibraryProfile
}

// LibraryOption is one selectable library.
type LibraryOption struct {
	ID      string              `json:"id"`
	Title   string              `json:"title"`
	Enabled bool                `json:"enabled"`
	Status  types.RuntimeStatus `json:"status"`
}

// Event notifies subscribers that part of the facade's state changed.
type Event struct {
	Type      EventType `json:"type"`
	LibraryID string    `json:"libraryId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType represents the type of facade event
type EventType string

const (
	EventEnabled     EventType = "enabled"
	EventLoading     EventType = "loading"
	EventDiagnostics EventType = "diagnostics"
)

// Facade is safe for concurrent use.
type Facade struct {
	engine   Engine
	profiles Profiles
	store    storage.Store
	bus      *events.Bus
	logger   logging.Logger

	mu          sync.RWMutex
	enabled     []string
	diagnostics []types.Diagnostic
	running     int
	generation  uint64
	cancel      context.CancelFunc
	unsubscribe func()
	watchers    []chan Event
}

// Option configures a Facade.
type Option func(*Facade)

// WithBus sets the bus carrying configuration-change signals. The
// process-wide bus is used by default.
func WithBus(bus *events.Bus) Option {
	return func(f *Facade) { f.bus = bus }
}

// WithLogger sets the facade's logger.
func WithLogger(logger logging.Logger) Option {
	return func(f *Facade) { f.logger = logger }
}

// New creates a facade. The enabled list is read when Start is called.
func New(engine Engine, profiles Profiles, store storage.Store, opts ...Option) *Facade {
	f := &Facade{
		engine:   engine,
		profiles: profiles,
		store:    store,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.bus == nil {
		f.bus = events.Default()
	}
	f.logger = f.logger.WithComponent("facade")
	return f
}

// Start reads the persisted enabled list, subscribes to configuration
// changes and runs the first reload.
func (f *Facade) Start(ctx context.Context) []types.Diagnostic {
	ids := storage.GetStringList(ctx, f.store, KeyEnabled)

	f.mu.Lock()
	f.enabled = ids
	if f.unsubscribe == nil {
		f.unsubscribe = f.bus.Subscribe(events.TopicEnabledChanged, f.onEnabledChanged)
	}
	f.mu.Unlock()

	f.logger.Info(ctx, "Facade started", "enabled", ids)
	return f.ReloadAll(ctx)
}

// Stop unsubscribes from configuration changes and cancels a running
// reload.
func (f *Facade) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	for _, w := range f.watchers {
		close(w)
	}
	f.watchers = nil
}

// Enabled returns the enabled library ids.
func (f *Facade) Enabled() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Clone(f.enabled)
}

// SetEnabled persists ids as the enabled list, announces the change and
// reloads.
func (f *Facade) SetEnabled(ctx context.Context, ids []string) ([]types.Diagnostic, error) {
	ids = normalize(ids)
	if err := storage.SetStringList(ctx, f.store, KeyEnabled, ids); err != nil {
		return nil, paletteerrors.NewIOError(paletteerrors.ErrCodeStorageFailed, "persisting enabled libraries", err)
	}

	f.mu.Lock()
	f.enabled = ids
	f.mu.Unlock()
	f.notify(Event{Type: EventEnabled})

	f.bus.PublishEnabledChanged(ctx, "facade", ids)
	return f.ReloadAll(ctx), nil
}

// onEnabledChanged reacts to changes published by others, such as the file
// watcher. Lists equal to the current one are ignored.
func (f *Facade) onEnabledChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Data.(events.EnabledChanged)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Data)
	}

	ids := payload.IDs
	if ids == nil {
		ids = storage.GetStringList(ctx, f.store, KeyEnabled)
	}
	ids = normalize(ids)

	f.mu.Lock()
	if slices.Equal(ids, f.enabled) {
		f.mu.Unlock()
		return nil
	}
	f.enabled = ids
	f.mu.Unlock()

	f.logger.Info(ctx, "Enabled libraries changed", "source", event.Source, "enabled", ids)
	f.notify(Event{Type: EventEnabled})
	f.ReloadAll(ctx)
	return nil
}

// ReloadAll ensures every enabled library. A reload started while another
// is running cancels the older one, whose results are then discarded.
func (f *Facade) ReloadAll(ctx context.Context) []types.Diagnostic {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	generation := f.generation
	f.cancel = cancel
	ids := slices.Clone(f.enabled)
	f.running++
	f.mu.Unlock()
	f.notify(Event{Type: EventLoading})

	diagnostics := f.engine.EnsureAll(runCtx, ids)

	f.mu.Lock()
	f.running--
	current := generation == f.generation
	if current {
		f.diagnostics = types.CloneDiagnostics(diagnostics)
		f.cancel = nil
	}
	f.mu.Unlock()

	if !current {
		f.logger.Debug(ctx, "Discarded superseded reload", "generation", generation)
		f.notify(Event{Type: EventLoading})
		return nil
	}

	f.logger.Info(ctx, "Reload finished", "libraries", len(ids), "diagnostics", len(diagnostics))
	f.notify(Event{Type: EventLoading}, Event{Type: EventDiagnostics})
	return diagnostics
}

// Retry reruns the cycle of one enabled library and replaces that
// library's diagnostics.
func (f *Facade) Retry(ctx context.Context, libraryID string) ([]types.Diagnostic, error) {
	f.mu.Lock()
	if !slices.Contains(f.enabled, libraryID) {
		f.mu.Unlock()
		return nil, paletteerrors.NewValidationError(paletteerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("library %q is not enabled", libraryID)).WithLibrary(libraryID)
	}
	f.running++
	f.mu.Unlock()
	f.notify(Event{Type: EventLoading, LibraryID: libraryID})

	var diagnostics []types.Diagnostic
	if profile, ok := f.profiles.Get(libraryID); ok {
		diagnostics = f.engine.Ensure(ctx, profile)
	} else {
		diagnostics = []types.Diagnostic{paletteerrors.ProfileMissing(libraryID)}
	}

	f.mu.Lock()
	f.running--
	kept := make([]types.Diagnostic, 0, len(f.diagnostics)+len(diagnostics))
	for _, d := range f.diagnostics {
		if d.LibraryID != libraryID {
			kept = append(kept, d)
		}
	}
	f.diagnostics = append(kept, diagnostics...)
	f.mu.Unlock()

	f.notify(Event{Type: EventLoading, LibraryID: libraryID}, Event{Type: EventDiagnostics, LibraryID: libraryID})
	return diagnostics, nil
}

// Diagnostics returns the diagnostics of the latest reload, updated by
// retries.
func (f *Facade) Diagnostics() []types.Diagnostic {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return types.CloneDiagnostics(f.diagnostics)
}

// States returns the runtime state of every library the engine has seen.
func (f *Facade) States() []types.RuntimeState {
	return f.engine.States()
}

// Loading reports whether a reload or retry is running.
func (f *Facade) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.running > 0
}

// Options lists every registered library with its enabled flag and status.
func (f *Facade) Options() []LibraryOption {
	statuses := make(map[string]types.RuntimeStatus)
	for _, state := range f.engine.States() {
		statuses[state.LibraryID] = state.Status
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	profiles := f.profiles.Profiles()
	out := make([]LibraryOption, 0, len(profiles))
	for _, p := range profiles {
		status, ok := statuses[p.ID]
		if !ok {
			status = types.StatusIdle
		}
		title := p.Title
		if title == "" {
			title = p.ID
		}
		out = append(out, LibraryOption{
			ID:      p.ID,
			Title:   title,
			Enabled: slices.Contains(f.enabled, p.ID),
			Status:  status,
		})
	}
	return out
}

// Watch returns a channel that receives facade events
func (f *Facade) Watch() <-chan Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, 100)
	f.watchers = append(f.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (f *Facade) UnWatch(ch <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, watcher := range f.watchers {
		if watcher == ch {
			close(watcher)
			f.watchers = append(f.watchers[:i], f.watchers[i+1:]...)
			break
		}
	}
}

func (f *Facade) notify(evts ...Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	now := time.Now()
	for _, event := range evts {
		event.Timestamp = now
		for _, watcher := range f.watchers {
			select {
			case watcher <- event:
			default:
				// Skip if channel is full
			}
		}
	}
}

// normalize drops empty and duplicate ids, keeping first-seen order.
func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
