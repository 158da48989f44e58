// Package cmd provides the command-line interface for projtool, a
// multi-project incremental build orchestrator. Global flags are bound
// into viper here; every subcommand reads them back through
// config.Load in common.go rather than package-level variables.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "projtool",
	Short: "Incremental build orchestrator for referenced project graphs",
	Long: `projtool builds a graph of referenced projects in topological order,
skipping any project whose inputs, outputs, and upstream references are
already up to date.

Quick Start:
  projtool build ./a               Build a and everything it depends on
  projtool build --watch ./a       Build, then rebuild on file changes
  projtool list ./a                Print the resolved build order
  projtool clean ./a               Delete every enumerable output

Documentation: https://github.com/conneroisu/projtool`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .projtool.yml)")
	rootCmd.PersistentFlags().Bool("dry", false, "show what would be built without writing anything")
	rootCmd.PersistentFlags().Bool("force", false, "rebuild every project regardless of up-to-date status")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print per-project status lines")

	viper.BindPFlag("engine.dry", rootCmd.PersistentFlags().Lookup("dry"))
	viper.BindPFlag("engine.force", rootCmd.PersistentFlags().Lookup("force"))
	viper.BindPFlag("engine.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if env := os.Getenv("PROJTOOL_CONFIG_FILE"); env != "" {
		viper.SetConfigFile(env)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".projtool")
	}

	viper.SetEnvPrefix("PROJTOOL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
