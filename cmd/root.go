// Package cmd provides the command-line interface for palette.
//
// Configuration is read from, in order of precedence:
//  1. Command-line flags (--config, --port, etc.)
//  2. PALETTE_CONFIG_FILE, naming a custom config file
//  3. Individual environment variables (PALETTE_SERVER_PORT, etc.)
//  4. .palette.yml in the current directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "palette",
	Short: "Bring external UI component libraries into the editor palette",
	Long: `Palette loads third-party UI component libraries at runtime, discovers
their components, normalizes them and serves them as palette groups.

Quick Start:
  palette libraries list          List known libraries
  palette libraries enable demo   Enable a library
  palette serve                   Serve the palette
  palette status                  Load enabled libraries and report their state`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .palette.yml, can also use PALETTE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig resolves the config file and binds PALETTE_ environment
// variables. A missing config file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PALETTE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".palette")
	}

	viper.SetEnvPrefix("PALETTE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
