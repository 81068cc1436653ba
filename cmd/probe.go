package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var probeFormat string

var probeCmd = &cobra.Command{
	Use:   "probe <package> <version> <path>",
	Short: "Infer prop options for one component from its type declarations",
	Long: `Resolve the declaration URLs of a component, fetch the first one that
answers and print the prop options inferred from it.

Examples:
  palette probe @mui/material 5.15.0 Button
  palette probe antd 5.12.0 DatePicker -f json`,
	Args: cobra.ExactArgs(3),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVarP(&probeFormat, "format", "f", "table", "Output format (table, json, yaml)")
}

type probeResult struct {
	URL     string              `json:"url" yaml:"url"`
	Options map[string][]string `json:"options" yaml:"options"`
}

func runProbe(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	url, options := a.enricher.Options(cmd.Context(), args[0], args[1], args[2])
	result := probeResult{URL: url, Options: options}

	out := cmd.OutOrStdout()
	if handled, err := writeStructured(out, probeFormat, result); handled {
		return err
	}

	if url == "" {
		fmt.Fprintln(out, warnStyle.Render("No declaration file found"))
		return nil
	}
	fmt.Fprintln(out, mutedStyle.Render(url))
	props := make([]string, 0, len(options))
	for prop := range options {
		props = append(props, prop)
	}
	sort.Strings(props)
	rows := make([][]string, 0, len(props))
	for _, prop := range props {
		rows = append(rows, []string{prop, strings.Join(options[prop], ", ")})
	}
	fmt.Fprintln(out, renderTable([]string{"PROP", "OPTIONS"}, rows))
	return nil
}
