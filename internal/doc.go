// Package internal contains the core implementation packages for palette.
//
// The internal packages are organized by functional domain:
//
//   - host: the host module model shared with external libraries
//   - loader: imports a library module from the first working entry URL
//   - scanner: discovers component export paths in a module
//   - profiles: per-library profiles, canonicalization and the demo library
//   - enricher: infers prop options from type declaration files
//   - manifest: validates and applies editor manifest overrides
//   - registry: the component registry and its metadata store
//   - engine: runs the load, scan, canonicalize, enrich and register cycle
//   - facade: the enabled library list and the editor-facing state
//   - events: the in-process configuration change bus
//   - watcher: reloads when the persisted enabled list changes on disk
//   - storage: file and SQLite key-value storage with a TTL cache
//   - server: HTTP and WebSocket access to the palette
//   - config, logging, metrics, errors, validation, version: ambient support
//
// # Inter-Package Communication
//
//   - The facade drives the engine; the engine feeds the registry
//   - Registry and facade events are streamed to WebSocket clients
//   - The watcher and the facade meet on the events bus
//
// Library problems never surface as Go errors from the pipeline. Each stage
// reports diagnostics instead, so one failing library cannot stop the
// others.
package internal
