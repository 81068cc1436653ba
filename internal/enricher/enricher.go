// Package enricher augments canonical components with the selectable values
// of well-known props, scraped from the declaration files a package
// publishes.
//
// Enrichment is best effort. Declaration text is looked up in an in-process
// table first, then in a persisted TTL cache, then over the network; any
// failure leaves the component as it was.
package enricher

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/palette/internal/logging"
	"github.com/conneroisu/palette/internal/metrics"
	"github.com/conneroisu/palette/internal/storage"
	"github.com/conneroisu/palette/internal/types"
)

// CachePrefix prefixes persisted declaration entries.
const CachePrefix = "extlib:dts:"

// defaultParallelism bounds concurrent component lookups in one batch.
const defaultParallelism = 8

// Enricher fills PropOptions from declaration files.
type Enricher struct {
	fetcher   Fetcher
	cache     *storage.TTLCache
	templates Templates
	fallback  []string
	props     []string
	logger    logging.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	memory map[string]*lookup
}

// lookup is one declaration URL's pending or resolved text. An empty text
// means the URL yielded nothing in this process.
type lookup struct {
	done chan struct{}
	text string
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithCache sets the persisted tier.
func WithCache(cache *storage.TTLCache) Option {
	return func(e *Enricher) { e.cache = cache }
}

// WithTemplates sets the package URL templates and the fallback templates.
func WithTemplates(templates Templates, fallback []string) Option {
	return func(e *Enricher) {
		e.templates = templates
		e.fallback = fallback
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Enricher) { e.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enricher) { e.metrics = m }
}

// New creates an Enricher that fetches through fetcher.
func New(fetcher Fetcher, opts ...Option) *Enricher {
	e := &Enricher{
		fetcher:   fetcher,
		templates: DefaultTemplates,
		fallback:  DefaultFallback,
		props:     WellKnownProps,
		logger:    logging.Nop(),
		memory:    make(map[string]*lookup),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("enricher")
	return e
}

// Enrich returns components with inferred prop options attached. It never
// fails; components that cannot be enriched are returned unchanged.
func (e *Enricher) Enrich(ctx context.Context, d types.LibraryDescriptor, components []types.CanonicalComponent) []types.CanonicalComponent {
	out := make([]types.CanonicalComponent, len(components))
	copy(out, components)

	var g errgroup.Group
	g.SetLimit(defaultParallelism)
	for i := range out {
		g.Go(func() error {
			out[i] = e.enrichOne(ctx, d, out[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Options returns the inferred options for one component path without
// touching any component. It is used by the probe command.
func (e *Enricher) Options(ctx context.Context, packageName, version, path string) (string, map[string][]string) {
	for _, url := range Resolve(e.templates, e.fallback, packageName, version, path) {
		if text := e.text(ctx, url); text != "" {
			return url, InferOptions(text, e.props)
		}
	}
	return "", map[string][]string{}
}

func (e *Enricher) enrichOne(ctx context.Context, d types.LibraryDescriptor, c types.CanonicalComponent) (result types.CanonicalComponent) {
	result = c
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn(ctx, fmt.Errorf("%v", r), "Enrichment panicked", "path", c.Path)
			result = c
		}
	}()

	_, options := e.Options(ctx, d.PackageName, d.Version, c.Path)
	if len(options) == 0 {
		return c
	}

	enriched := c.Clone()
	if enriched.PropOptions == nil {
		enriched.PropOptions = make(map[string][]string, len(options))
	}
	for prop, values := range options {
		if _, exists := enriched.PropOptions[prop]; exists {
			continue
		}
		enriched.PropOptions[prop] = values
	}
	if sizes, ok := options["size"]; ok && len(enriched.SizeOptions) == 0 {
		enriched.SizeOptions = append([]string(nil), sizes...)
	}
	return enriched
}

// text resolves declaration text for url through the memory tier, the
// persisted tier and finally the network. Concurrent callers for the same
// url share one lookup.
func (e *Enricher) text(ctx context.Context, url string) string {
	e.mu.Lock()
	if l, ok := e.memory[url]; ok {
		e.mu.Unlock()
		select {
		case <-l.done:
			e.metrics.DeclarationLookup(metrics.TierMemory)
			return l.text
		case <-ctx.Done():
			return ""
		}
	}
	l := &lookup{done: make(chan struct{})}
	e.memory[url] = l
	e.mu.Unlock()
	defer close(l.done)

	if e.cache != nil {
		if text, ok := e.cache.Get(ctx, url); ok && text != "" {
			e.metrics.DeclarationLookup(metrics.TierStorage)
			l.text = text
			return text
		}
	}

	op := logging.StartOperation(e.logger, "declaration_fetch")
	text, err := e.fetcher.Fetch(ctx, url)
	op.End(ctx, "url", url, "bytes", len(text))
	if err != nil {
		e.metrics.DeclarationLookup(metrics.TierFailed)
		e.logger.Debug(ctx, "Declaration fetch failed", "url", url, "error", err.Error())
		return ""
	}
	e.metrics.DeclarationLookup(metrics.TierNetwork)

	l.text = text
	if text != "" && e.cache != nil {
		if err := e.cache.Set(ctx, url, text); err != nil {
			e.logger.Warn(ctx, err, "Cannot persist declaration text", "url", url)
		}
	}
	return text
}
