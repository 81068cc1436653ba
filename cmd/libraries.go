package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/facade"
	"github.com/conneroisu/palette/internal/storage"
	"github.com/conneroisu/palette/internal/types"
)

var librariesFormat string

var librariesCmd = &cobra.Command{
	Use:     "libraries",
	Aliases: []string{"libs"},
	Short:   "Manage which component libraries are enabled",
}

var librariesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List known libraries and whether they are enabled",
	Args:    cobra.NoArgs,
	RunE:    runLibrariesList,
}

var librariesEnableCmd = &cobra.Command{
	Use:   "enable <id>...",
	Short: "Enable libraries",
	Long: `Add libraries to the persisted enabled list. A running "palette serve"
using the file storage backend reloads automatically.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateEnabled(cmd, args, true)
	},
}

var librariesDisableCmd = &cobra.Command{
	Use:   "disable <id>...",
	Short: "Disable libraries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateEnabled(cmd, args, false)
	},
}

func init() {
	rootCmd.AddCommand(librariesCmd)
	librariesCmd.AddCommand(librariesListCmd, librariesEnableCmd, librariesDisableCmd)

	librariesListCmd.Flags().StringVarP(&librariesFormat, "format", "f", "table", "Output format (table, json, yaml)")
}

type libraryRow struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

func runLibrariesList(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.seedEnabled(cmd.Context()); err != nil {
		return err
	}
	enabled := storage.GetStringList(cmd.Context(), a.store, facade.KeyEnabled)

	var rows []libraryRow
	for _, p := range a.profiles.Profiles() {
		row := libraryRow{ID: p.ID, Title: p.Title, Enabled: slices.Contains(enabled, p.ID)}
		if row.Title == "" {
			row.Title = p.ID
		}
		if p.Descriptor != nil {
			row.Package = describePackage(p.Descriptor)
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	if handled, err := writeStructured(out, librariesFormat, rows); handled {
		return err
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		mark := mutedStyle.Render("no")
		if row.Enabled {
			mark = okStyle.Render("yes")
		}
		table = append(table, []string{row.ID, row.Title, row.Package, mark})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "TITLE", "PACKAGE", "ENABLED"}, table))
	return nil
}

// describePackage formats the descriptor's package, tolerating descriptors
// that panic.
func describePackage(describe func() types.LibraryDescriptor) (pkg string) {
	defer func() {
		if recover() != nil {
			pkg = "?"
		}
	}()
	d := describe()
	if d.Version == "" {
		return d.PackageName
	}
	return d.PackageName + "@" + d.Version
}

func updateEnabled(cmd *cobra.Command, ids []string, enable bool) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.seedEnabled(ctx); err != nil {
		return err
	}
	enabled := storage.GetStringList(ctx, a.store, facade.KeyEnabled)

	for _, id := range ids {
		if enable {
			if _, ok := a.profiles.Get(id); !ok {
				return paletteerrors.NewValidationError(paletteerrors.ErrCodeConfigInvalid,
					fmt.Sprintf("unknown library %q", id)).WithLibrary(id)
			}
			if !slices.Contains(enabled, id) {
				enabled = append(enabled, id)
			}
			continue
		}
		enabled = slices.DeleteFunc(enabled, func(e string) bool { return e == id })
	}

	if err := storage.SetStringList(ctx, a.store, facade.KeyEnabled, enabled); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enabled libraries: %v\n", enabled)
	return nil
}
