// Package engine runs library load cycles: load, scan, canonicalize,
// enrich, overlay and register. It keeps one runtime state per library and
// guarantees at most one cycle in flight per library version.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/logging"
	"github.com/conneroisu/palette/internal/manifest"
	"github.com/conneroisu/palette/internal/metrics"
	"github.com/conneroisu/palette/internal/scanner"
	"github.com/conneroisu/palette/internal/types"
)

const tracerName = "github.com/conneroisu/palette/internal/engine"

// Loader imports the module of a library descriptor.
type Loader interface {
	Load(ctx context.Context, d types.LibraryDescriptor) (host.Module, []types.Diagnostic)
}

// Enricher attaches selectable prop values to components.
type Enricher interface {
	Enrich(ctx context.Context, d types.LibraryDescriptor, components []types.CanonicalComponent) []types.CanonicalComponent
}

// Registry receives the output of a cycle.
type Registry interface {
	RegisterComponents(components []types.CanonicalComponent) []types.Diagnostic
	RegisterGroups(libraryID string, groups []types.CanonicalGroup)
	ClearLibrary(libraryID string)
	LibraryIDs() []string
}

// Profiles resolves library ids to profiles.
type Profiles interface {
	Get(id string) (types.LibraryProfile, bool)
}

// Engine orchestrates load cycles.
type Engine struct {
	loader   Loader
	registry Registry
	enricher Enricher
	profiles Profiles
	logger   logging.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time

	inflight singleflight.Group

	mu      sync.RWMutex
	states  map[string]types.RuntimeState
	waiting map[string]*waiters
}

// waiters holds the contexts of every caller sharing one cycle. The cycle
// is abandoned at a boundary only once all of them are done. refs counts
// the callers still inside Ensure and is guarded by Engine.mu.
type waiters struct {
	mu   sync.Mutex
	ctxs []context.Context
	refs int
}

func (w *waiters) add(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctxs = append(w.ctxs, ctx)
}

func (w *waiters) remove(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, c := range w.ctxs {
		if c == ctx {
			w.ctxs = append(w.ctxs[:i], w.ctxs[i+1:]...)
			return
		}
	}
}

func (w *waiters) abandoned() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ctx := range w.ctxs {
		if ctx.Err() == nil {
			return false
		}
	}
	return true
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnricher enables option enrichment.
func WithEnricher(enricher Enricher) Option {
	return func(e *Engine) { e.enricher = enricher }
}

// WithProfiles sets the profile source used by EnsureAll.
func WithProfiles(profiles Profiles) Option {
	return func(e *Engine) { e.profiles = profiles }
}

// WithLogger sets the engine's logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records cycle metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithClock overrides the clock used for state timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine that loads through loader and registers into
// registry.
func New(loader Loader, registry Registry, opts ...Option) *Engine {
	e := &Engine{
		loader:   loader,
		registry: registry,
		logger:   logging.Nop(),
		now:      time.Now,
		states:   make(map[string]types.RuntimeState),
		waiting:  make(map[string]*waiters),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	e.logger = e.logger.WithComponent("engine")
	return e
}

// Ensure loads profile's library and registers its components. A caller
// whose ctx is already done gets nil and no state changes. Callers that
// arrive while a cycle for the same library version is running join that
// cycle and receive a copy of its diagnostics.
func (e *Engine) Ensure(ctx context.Context, profile types.LibraryProfile) []types.Diagnostic {
	if ctx.Err() != nil {
		return nil
	}

	descriptor, err := describe(profile)
	if err != nil {
		diagnostic := paletteerrors.Unexpected(profile.ID, err)
		e.setState(profile.ID, types.StatusError, []types.Diagnostic{diagnostic})
		return []types.Diagnostic{diagnostic}
	}

	key := descriptor.CacheKey()
	w := e.join(ctx, key)
	defer e.leave(ctx, key, w)

	leader := false
	result, _, _ := e.inflight.Do(key, func() (any, error) {
		leader = true
		return e.cycle(ctx, profile, descriptor, w.abandoned), nil
	})
	if !leader {
		e.metrics.Joined()
	}

	diagnostics, _ := result.([]types.Diagnostic)
	return types.CloneDiagnostics(diagnostics)
}

// join registers ctx with the waiters of key. An entry lives for as long as
// any caller is inside Ensure, so every caller of a running cycle shares
// the waiters its leader consults.
func (e *Engine) join(ctx context.Context, key string) *waiters {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.waiting[key]
	if !ok {
		w = &waiters{}
		e.waiting[key] = w
	}
	w.refs++
	w.add(ctx)
	return w
}

func (e *Engine) leave(ctx context.Context, key string, w *waiters) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w.remove(ctx)
	w.refs--
	if w.refs == 0 && e.waiting[key] == w {
		delete(e.waiting, key)
	}
}

// EnsureAll makes ids the complete set of loaded libraries. Libraries
// registered before but absent from ids are cleared first, then every id is
// ensured concurrently. Diagnostics are concatenated in the order of ids.
func (e *Engine) EnsureAll(ctx context.Context, ids []string) []types.Diagnostic {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, id := range e.known() {
		if _, ok := wanted[id]; !ok {
			e.logger.Info(ctx, "Clearing disabled library", "library_id", id)
			e.registry.ClearLibrary(id)
			e.RemoveState(id)
		}
	}

	results := make([][]types.Diagnostic, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			profile, ok := e.lookupProfile(id)
			if !ok {
				diagnostic := paletteerrors.ProfileMissing(id)
				e.setState(id, types.StatusError, []types.Diagnostic{diagnostic})
				e.metrics.Diagnostic(diagnostic.Code, string(diagnostic.Level))
				results[i] = []types.Diagnostic{diagnostic}
				return nil
			}
			results[i] = e.Ensure(ctx, profile)
			return nil
		})
	}
	_ = g.Wait()

	var all []types.Diagnostic
	for _, diagnostics := range results {
		all = append(all, diagnostics...)
	}
	return all
}

// known returns every library that is registered or has a runtime state.
func (e *Engine) known() []string {
	ids := e.registry.LibraryIDs()
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for id := range e.states {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func describe(profile types.LibraryProfile) (d types.LibraryDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("descriptor factory panicked: %v", r)
		}
	}()
	if profile.Descriptor == nil {
		return d, fmt.Errorf("profile %s has no descriptor factory", profile.ID)
	}
	return profile.Descriptor(), nil
}

func (e *Engine) lookupProfile(id string) (types.LibraryProfile, bool) {
	if e.profiles == nil {
		return types.LibraryProfile{}, false
	}
	return e.profiles.Get(id)
}

// cycle runs one load cycle. Stage I/O runs without the caller's
// cancellation; abandoned is only consulted before the loader, before the
// enricher and before registration.
func (e *Engine) cycle(ctx context.Context, profile types.LibraryProfile, d types.LibraryDescriptor, abandoned func() bool) (diagnostics []types.Diagnostic) {
	id := profile.ID
	cycleID := uuid.NewString()
	start := e.now()
	logger := e.logger.With("library_id", id, "cycle_id", cycleID)

	spanCtx, span := e.tracer.Start(context.WithoutCancel(ctx), "engine.ensure", trace.WithAttributes(
		attribute.String("library.id", id),
		attribute.String("library.package", d.PackageName),
		attribute.String("library.version", d.Version),
		attribute.String("cycle.id", cycleID),
	))
	defer span.End()

	previous, hadPrevious := e.State(id)
	e.setState(id, types.StatusLoading, nil)
	collector := paletteerrors.NewCollector()
	cancelled := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error(spanCtx, fmt.Errorf("%v", r), "Load cycle panicked")
			collector.Add(paletteerrors.Unexpected(id, r))
		}

		if cancelled {
			e.restoreState(id, previous, hadPrevious)
			span.SetAttributes(attribute.Bool("cancelled", true))
			logger.Info(spanCtx, "Load cycle cancelled")
			diagnostics = nil
			return
		}

		diagnostics = collector.Diagnostics()
		status := types.StatusSuccess
		if types.HasErrors(diagnostics) {
			status = types.StatusError
			span.SetStatus(codes.Error, "library failed to load")
		}
		e.setState(id, status, diagnostics)

		for _, diagnostic := range diagnostics {
			e.metrics.Diagnostic(diagnostic.Code, string(diagnostic.Level))
		}
		e.metrics.CycleFinished(id, string(status), e.now().Sub(start))
		logger.Info(spanCtx, "Load cycle finished",
			"status", status,
			"diagnostics", len(diagnostics),
			"duration", e.now().Sub(start))
	}()

	if abandoned() {
		cancelled = true
		return nil
	}

	module := e.load(spanCtx, d, collector)
	if module == nil {
		return nil
	}

	paths := e.scan(spanCtx, profile, module, collector)

	components, err := profile.ToCanonicalComponents(module, paths)
	if err != nil {
		collector.Add(paletteerrors.Unexpected(id, err))
		return nil
	}

	if e.enricher != nil {
		if abandoned() {
			cancelled = true
			return nil
		}
		components = e.enrich(spanCtx, d, components)
	}

	components = manifest.ApplyToComponents(components, profile.Manifest)
	var groups []types.CanonicalGroup
	if profile.ToGroups != nil {
		groups = profile.ToGroups(components)
	}
	groups = manifest.ApplyToGroups(components, groups, profile.Manifest)

	if abandoned() {
		cancelled = true
		return nil
	}
	e.register(spanCtx, id, components, groups, collector)
	return nil
}

func (e *Engine) load(ctx context.Context, d types.LibraryDescriptor, collector *paletteerrors.Collector) host.Module {
	ctx, span := e.tracer.Start(ctx, "engine.load", trace.WithAttributes(
		attribute.Int("candidates", len(d.EntryCandidates)),
	))
	defer span.End()

	module, diagnostics := e.loader.Load(ctx, d)
	collector.Add(diagnostics...)
	if module == nil {
		span.SetStatus(codes.Error, "no entry candidate could be imported")
	}
	return module
}

func (e *Engine) scan(ctx context.Context, profile types.LibraryProfile, module host.Module, collector *paletteerrors.Collector) []string {
	_, span := e.tracer.Start(ctx, "engine.scan")
	defer span.End()

	paths := scanner.Scan(module, scanner.OptionsFor(profile))
	span.SetAttributes(attribute.Int("paths", len(paths)))
	if len(paths) == 0 {
		collector.Add(paletteerrors.ScanEmpty(profile.ID))
	}
	return paths
}

func (e *Engine) enrich(ctx context.Context, d types.LibraryDescriptor, components []types.CanonicalComponent) []types.CanonicalComponent {
	ctx, span := e.tracer.Start(ctx, "engine.enrich", trace.WithAttributes(
		attribute.Int("components", len(components)),
	))
	defer span.End()

	return e.enricher.Enrich(ctx, d, components)
}

func (e *Engine) register(ctx context.Context, libraryID string, components []types.CanonicalComponent, groups []types.CanonicalGroup, collector *paletteerrors.Collector) {
	_, span := e.tracer.Start(ctx, "engine.register", trace.WithAttributes(
		attribute.Int("components", len(components)),
		attribute.Int("groups", len(groups)),
	))
	defer span.End()

	e.registry.ClearLibrary(libraryID)
	collector.Add(e.registry.RegisterComponents(components)...)
	e.registry.RegisterGroups(libraryID, groups)
}

// State returns the runtime state of libraryID.
func (e *Engine) State(libraryID string) (types.RuntimeState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	state, ok := e.states[libraryID]
	if ok {
		state.Diagnostics = types.CloneDiagnostics(state.Diagnostics)
	}
	return state, ok
}

// States returns every runtime state sorted by library id.
func (e *Engine) States() []types.RuntimeState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]types.RuntimeState, 0, len(e.states))
	for _, state := range e.states {
		state.Diagnostics = types.CloneDiagnostics(state.Diagnostics)
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LibraryID < out[j].LibraryID })
	return out
}

// RemoveState forgets the runtime state of libraryID.
func (e *Engine) RemoveState(libraryID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.states, libraryID)
}

func (e *Engine) setState(libraryID string, status types.RuntimeStatus, diagnostics []types.Diagnostic) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.states[libraryID] = types.RuntimeState{
		LibraryID:     libraryID,
		Status:        status,
		Diagnostics:   types.CloneDiagnostics(diagnostics),
		LastUpdatedAt: e.now(),
	}
}

// restoreState undoes the loading state of a cancelled cycle. A state that
// was removed meanwhile, because the library was disabled, stays removed.
func (e *Engine) restoreState(libraryID string, previous types.RuntimeState, existed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.states[libraryID]; !ok {
		return
	}
	if existed {
		e.states[libraryID] = previous
		return
	}
	delete(e.states, libraryID)
}
