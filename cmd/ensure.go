package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/palette/internal/types"
)

var ensureFormat string

var ensureCmd = &cobra.Command{
	Use:   "ensure <id>...",
	Short: "Load libraries once and print their palette groups",
	Long: `Run the load, scan, normalize, enrich and register pipeline for the
given libraries and print the resulting palette groups and diagnostics.
Nothing is persisted. The command fails when any library reports an error.

Examples:
  palette ensure demo
  palette ensure demo mui -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnsure,
}

func init() {
	rootCmd.AddCommand(ensureCmd)
	ensureCmd.Flags().StringVarP(&ensureFormat, "format", "f", "table", "Output format (table, json, yaml)")
}

type ensureResult struct {
	Groups      []types.CanonicalGroup `json:"groups" yaml:"groups"`
	Diagnostics []types.Diagnostic     `json:"diagnostics" yaml:"diagnostics"`
}

func runEnsure(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	diagnostics := a.engine.EnsureAll(cmd.Context(), args)
	result := ensureResult{Groups: a.registry.Groups(), Diagnostics: diagnostics}

	out := cmd.OutOrStdout()
	handled, err := writeStructured(out, ensureFormat, result)
	if err != nil {
		return err
	}
	if !handled {
		for _, g := range result.Groups {
			fmt.Fprintln(out, titleStyle.Render(g.Title)+" "+mutedStyle.Render(g.ID))
			for _, item := range g.Items {
				fmt.Fprintf(out, "  %-24s %s\n", item.ComponentName, mutedStyle.Render(item.RuntimeType))
			}
		}
		renderDiagnostics(out, diagnostics)
	}

	if types.HasErrors(diagnostics) {
		return fmt.Errorf("%d diagnostic(s) reported", len(diagnostics))
	}
	return nil
}
