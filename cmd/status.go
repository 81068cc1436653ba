package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conneroisu/palette/internal/facade"
	"github.com/conneroisu/palette/internal/types"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Load the enabled libraries and report their state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "table", "Output format (table, json, yaml)")
}

type statusReport struct {
	Libraries   []facade.LibraryOption `json:"libraries" yaml:"libraries"`
	Types       int                    `json:"types" yaml:"types"`
	Diagnostics []types.Diagnostic     `json:"diagnostics" yaml:"diagnostics"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.seedEnabled(ctx); err != nil {
		return err
	}
	diagnostics := a.facade.Start(ctx)

	report := statusReport{
		Libraries:   a.facade.Options(),
		Types:       a.registry.Count(),
		Diagnostics: diagnostics,
	}

	out := cmd.OutOrStdout()
	if handled, err := writeStructured(out, statusFormat, report); handled {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render("Component libraries"))
	rows := make([][]string, 0, len(report.Libraries))
	for _, lib := range report.Libraries {
		enabled := mutedStyle.Render("no")
		if lib.Enabled {
			enabled = okStyle.Render("yes")
		}
		count := strconv.Itoa(len(a.registry.RuntimeTypes(lib.ID)))
		rows = append(rows, []string{lib.ID, lib.Title, enabled, statusText(lib.Status), count})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "TITLE", "ENABLED", "STATUS", "TYPES"}, rows))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d runtime types registered", report.Types)))
	renderDiagnostics(out, diagnostics)
	return nil
}
