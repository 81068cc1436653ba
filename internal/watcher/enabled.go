package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/conneroisu/palette/internal/events"
	"github.com/conneroisu/palette/internal/logging"
)

// DefaultDebounce is how long the enabled-list watcher waits for writes to
// settle.
const DefaultDebounce = 200 * time.Millisecond

// WatchEnabled watches the file holding the persisted enabled list and
// publishes events.TopicEnabledChanged with nil IDs, so subscribers re-read
// the store, whenever it changes. The parent directory is watched because
// stores replace the file by renaming a temporary one over it. The returned
// watcher is running; stop it with Stop.
func WatchEnabled(ctx context.Context, path string, bus *events.Bus, logger logging.Logger) (*FileWatcher, error) {
	fw, err := NewFileWatcher(DefaultDebounce, logger)
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	fw.AddFilter(BaseNameFilter(filepath.Base(path)))
	fw.AddHandler(func(ctx context.Context, changes []ChangeEvent) error {
		fw.logger.Debug(ctx, "Enabled list changed on disk", "path", path, "changes", len(changes))
		if !bus.HasSubscribers(events.TopicEnabledChanged) {
			return nil
		}
		bus.Publish(ctx, events.Event{
			Name:   events.TopicEnabledChanged,
			Source: "watcher",
			Data:   events.EnabledChanged{},
		})
		return nil
	})

	if err := fw.AddPath(filepath.Dir(path)); err != nil {
		_ = fw.Stop()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	return fw, nil
}
