// Package storage provides the persisted key-value storage the palette
// shares with the rest of the application, and a TTL cache layered on it.
//
// Two backends exist: FileStore keeps one file per key on an afero
// filesystem, SQLiteStore keeps a single table. Both treat keys as opaque.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
)

// Store is a persisted key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the store's resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open opens the store named by backend. dir holds file backend entries;
// sqlitePath is the database file of the sqlite backend.
func Open(backend, dir, sqlitePath string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewOSFileStore(dir)
	case BackendSQLite:
		if sqlitePath == "" {
			sqlitePath = filepath.Join(dir, "palette.db")
		}
		return NewSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
