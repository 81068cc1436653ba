package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"plugin"
	"time"

	"github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/validation"
)

// ExportsSymbol is the symbol a module plugin exports its table under.
const ExportsSymbol = "Exports"

// PluginImporter imports modules built as Go plugins. Remote entry URLs are
// downloaded into Dir first; file URLs and bare paths are opened in place.
type PluginImporter struct {
	Dir      string
	Client   *http.Client
	MaxBytes int64
}

// NewPluginImporter creates an importer that caches downloads under dir.
func NewPluginImporter(dir string, timeout time.Duration) *PluginImporter {
	return &PluginImporter{
		Dir:      dir,
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: 64 << 20,
	}
}

// Import opens the plugin behind rawURL and reads its export table.
func (p *PluginImporter) Import(ctx context.Context, rawURL string) (host.Module, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid entry URL: %w", err)
	}

	var path string
	switch u.Scheme {
	case "", "file":
		path = u.Path
		if path == "" {
			path = u.Opaque
		}
	case "http", "https":
		if err := validation.ValidateURL(rawURL); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeImportFailed, err.Error()).WithLocation(rawURL)
		}
		path, err = p.download(ctx, rawURL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported entry URL scheme %q", u.Scheme)
	}

	plug, err := plugin.Open(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeImportFailed, "cannot open module plugin", err).WithLocation(path)
	}
	sym, err := plug.Lookup(ExportsSymbol)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeImportFailed, "module plugin has no export table", err).WithLocation(path)
	}

	return exportsFromSymbol(sym)
}

func exportsFromSymbol(sym plugin.Symbol) (host.Module, error) {
	switch exports := sym.(type) {
	case *map[string]any:
		return host.Module(*exports), nil
	case *host.Module:
		return *exports, nil
	case func() map[string]any:
		return host.Module(exports()), nil
	case func() host.Module:
		return exports(), nil
	default:
		return nil, fmt.Errorf("export table has unsupported type %T", sym)
	}
}

func (p *PluginImporter) download(ctx context.Context, rawURL string) (string, error) {
	sum := sha256.Sum256([]byte(rawURL))
	target := filepath.Join(p.Dir, hex.EncodeToString(sum[:])+".so")
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	if err := os.MkdirAll(p.Dir, 0o750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeImportFailed, "cannot create plugin directory", err).WithLocation(p.Dir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeFetchFailed, "download failed", err).WithLocation(rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewNetworkError(errors.ErrCodeFetchFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).WithLocation(rawURL)
	}

	tmp, err := os.CreateTemp(p.Dir, "download-*.so")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	limit := p.MaxBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, limit)); err != nil {
		tmp.Close()
		return "", errors.NewNetworkError(errors.ErrCodeFetchFailed, "download interrupted", err).WithLocation(rawURL)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	return target, nil
}
