package cmd

import (
	"context"
	"fmt"

	"github.com/conneroisu/projtool/internal/reporter"
	"github.com/spf13/cobra"
)

var (
	buildProject string
	buildWatch   bool
)

var buildCmd = &cobra.Command{
	Use:     "build [project-roots...]",
	Aliases: []string{"b"},
	Short:   "Build one or more projects and everything they reference",
	Long: `Build evaluates the up-to-date status of every project reachable from
the given roots, builds only what is stale in dependency order, and
propagates the consequences of each build to its downstream references.

Examples:
  projtool build                  # Build the project rooted at .
  projtool build ./a ./b          # Build two independent project roots
  projtool build --project ./a/projconf.json ./a   # Restrict to one project
  projtool build --watch ./a      # Build, then rebuild on file changes
  projtool build --dry ./a        # Report what would build without writing`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildProject, "project", "", "restrict the build to this project's own transitive dependencies")
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false, "keep running and rebuild on file changes after the initial build")
}

func runBuild(cmd *cobra.Command, args []string) error {
	roots := resolveRoots(args)
	s := newState()
	rep := reporter.New(s.Log, s.Config.Verbose, reporter.ModeBuild)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	status, err := s.Build(ctx, roots, buildProject)
	order, _ := s.Graph.BuildOrder(roots)
	rep.Summary(ctx, order, s.Diagnostics)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if !buildWatch {
		return exitStatusError(status)
	}

	rep.Reset()
	return runWatchSession(ctx, s, rep, order)
}
