package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/conneroisu/projtool/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionFormat string
	versionShort  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for projtool: semantic version, git
commit, build time, Go toolchain version, and target platform.

Examples:
  projtool version              # Show short version
  projtool version --detailed   # Show detailed version info
  projtool version -f json      # Output as JSON`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "show short version only")
	versionCmd.Flags().Bool("detailed", false, "show detailed version information")
}

func runVersion(cmd *cobra.Command, args []string) error {
	detailed, _ := cmd.Flags().GetBool("detailed")

	switch versionFormat {
	case "json":
		return outputVersionJSON()
	case "text":
		switch {
		case versionShort:
			fmt.Println(version.GetShortVersion())
		case detailed:
			fmt.Println(version.GetDetailedVersion())
		default:
			fmt.Println(version.GetShortVersion())
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}

func outputVersionJSON() error {
	info := version.GetBuildInfo()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
