package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/palette/internal/version"
)

var (
	versionFormat   string
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE:  runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()
	if handled, err := writeStructured(out, versionFormat, info); handled {
		return err
	}
	if versionDetailed {
		fmt.Fprintln(out, info.String())
		return nil
	}
	fmt.Fprintf(out, "palette %s\n", info.Short())
	return nil
}
