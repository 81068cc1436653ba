package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/conneroisu/palette/internal/errors"
)

// maxFileNameLength keeps escaped key names below common file system limits.
const maxFileNameLength = 200

// FileStore stores each key in its own file under a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a store rooted at dir on fs.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "cannot create storage directory", err).WithLocation(dir)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

// NewOSFileStore creates a store on the operating system's file system.
func NewOSFileStore(dir string) (*FileStore, error) {
	return NewFileStore(afero.NewOsFs(), dir)
}

// Path returns the file that holds key.
func (s *FileStore) Path(key string) string {
	name := url.PathEscape(key)
	if len(name) > maxFileNameLength {
		sum := sha256.Sum256([]byte(key))
		name = hex.EncodeToString(sum[:])
	}
	return filepath.Join(s.dir, name)
}

// Get reads key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.NewIOError(errors.ErrCodeStorageFailed, "read failed", err).WithLocation(key)
	}
	return data, true, nil
}

// Set writes key through a temporary file so readers never see partial data.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.Path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, 0o640); err != nil {
		return errors.NewIOError(errors.ErrCodeStorageFailed, "write failed", err).WithLocation(key)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.NewIOError(errors.ErrCodeStorageFailed, "rename failed", err).WithLocation(key)
	}
	return nil
}

// Delete removes key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError(errors.ErrCodeStorageFailed, "delete failed", err).WithLocation(key)
	}
	return nil
}

// Close is a no-op for file stores.
func (s *FileStore) Close() error {
	return nil
}
