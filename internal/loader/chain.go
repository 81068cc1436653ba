package loader

import (
	"context"
	"errors"

	"github.com/conneroisu/palette/internal/host"
)

// Chain tries each importer in order and returns the first module found.
// Built-in modules can be listed before a PluginImporter so linked
// libraries never touch the network.
func Chain(importers ...Importer) Importer {
	return ImporterFunc(func(ctx context.Context, url string) (host.Module, error) {
		var errs []error
		for _, importer := range importers {
			module, err := importer.Import(ctx, url)
			if err == nil {
				return module, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return nil, errors.New("no importers configured")
		}
		return nil, errors.Join(errs...)
	})
}
