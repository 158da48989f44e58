package cmd

import (
	"fmt"

	"github.com/conneroisu/projtool/internal/engine"
	projerr "github.com/conneroisu/projtool/internal/errors"
	"github.com/conneroisu/projtool/internal/types"
	"github.com/spf13/cobra"
)

var cleanProject string

var cleanCmd = &cobra.Command{
	Use:   "clean [project-roots...]",
	Short: "Delete every enumerable output of every reachable project",
	Long: `Clean resolves the project graph from the given roots and deletes every
output file the compiler options say each project would produce: the
per-input or bundled JS outputs, their declaration files, and the
persisted build-info artifact. With --dry, it lists what would be
deleted without touching the file system.

Examples:
  projtool clean                  # Delete outputs of the project rooted at .
  projtool clean --dry ./a        # List what clean would delete`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanProject, "project", "", "restrict cleaning to this project's own transitive dependencies")
}

func runClean(cmd *cobra.Command, args []string) error {
	roots := resolveRoots(args)
	s := newState()

	var order []types.CanonicalKey
	var diag *projerr.Diagnostic
	if cleanProject == "" {
		o, d := s.Graph.BuildOrder(roots)
		order, diag = o, d
	} else {
		resolved := s.Cache.Resolve(cleanProject)
		key := s.Cache.Key(resolved)
		o, d := s.Graph.BuildOrderFor(roots, key)
		order, diag = o, d
	}
	if diag != nil {
		return fmt.Errorf("resolve project graph: %w", diag)
	}

	removed := 0
	for _, key := range order {
		cfg, pdiag := s.Cache.Parse(key)
		if pdiag != nil {
			continue
		}
		for _, path := range cleanOutputPaths(s, cfg) {
			if !s.FS.FileExists(path) {
				continue
			}
			if s.Config.Dry {
				fmt.Printf("would delete %s\n", path)
				continue
			}
			if err := s.FS.DeleteFile(path); err != nil {
				return fmt.Errorf("delete %s: %w", path, err)
			}
			removed++
		}
	}

	if !s.Config.Dry {
		fmt.Printf("removed %d output file(s)\n", removed)
	}
	return nil
}

func cleanOutputPaths(s *engine.State, cfg *types.ParsedConfig) []string {
	inputs, err := s.InputFiles(cfg)
	if err != nil {
		return nil
	}
	paths := s.ExpectedOutputs(cfg, inputs)
	if bi := s.BuildInfoPath(cfg); bi != "" {
		paths = append(paths, bi)
	}
	return paths
}
