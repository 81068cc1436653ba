package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/palette/internal/facade"
	"github.com/conneroisu/palette/internal/server"
	"github.com/conneroisu/palette/internal/storage"
	"github.com/conneroisu/palette/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the palette over HTTP",
	Long: `Load the enabled libraries and serve the palette, component previews
and library selection over HTTP, with live updates on /ws.

With the file storage backend, edits to the persisted enabled list (for
example by "palette libraries enable") are picked up while serving.

Examples:
  palette serve                  # Serve on localhost:8080
  palette serve -p 3000          # Serve on another port`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.seedEnabled(ctx); err != nil {
		a.logger.Warn(ctx, err, "Could not seed enabled libraries")
	}

	if fileStore, ok := a.store.(*storage.FileStore); ok {
		fw, err := watcher.WatchEnabled(ctx, fileStore.Path(facade.KeyEnabled), a.bus, a.logger)
		if err != nil {
			a.logger.Warn(ctx, err, "Enabled list changes on disk will not be picked up")
		} else {
			defer fw.Stop()
		}
	}

	for _, d := range a.facade.Start(ctx) {
		a.logger.Warn(ctx, nil, d.Message, "code", d.Code, "library", d.LibraryID, "hint", d.Hint)
	}

	opts := []server.Option{server.WithLogger(a.logger)}
	if a.config.Metrics.Enabled {
		opts = append(opts, server.WithGatherer(a.gatherer))
	}
	srv := server.New(a.config.Server, a.registry, a.facade, opts...)
	return srv.Start(ctx)
}
