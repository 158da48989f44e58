package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conneroisu/projtool/internal/engine"
	"github.com/conneroisu/projtool/internal/reporter"
	"github.com/conneroisu/projtool/internal/types"
	"github.com/conneroisu/projtool/internal/watcher"
	"github.com/spf13/cobra"
)

var watchProject string

var watchCmd = &cobra.Command{
	Use:   "watch [project-roots...]",
	Aliases: []string{"w"},
	Short: "Build, then rebuild on file changes until interrupted",
	Long: `Watch performs a one-shot build of every project reachable from the
given roots, then installs file-system watchers for each project's config
file, wildcard directories, and input files. It rebuilds affected
projects as changes are debounced in, until interrupted with Ctrl+C.

Examples:
  projtool watch                  # Watch the project rooted at .
  projtool watch ./a ./b          # Watch two independent project roots`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchProject, "project", "", "restrict the initial build to this project's own transitive dependencies")
}

func runWatch(cmd *cobra.Command, args []string) error {
	roots := resolveRoots(args)
	s := newState()
	rep := reporter.New(s.Log, s.Config.Verbose, reporter.ModeWatch)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	status, err := s.Build(ctx, roots, watchProject)
	order, _ := s.Graph.BuildOrder(roots)
	rep.Summary(ctx, order, s.Diagnostics)
	if err != nil && status == engine.InvalidProjectOutputsSkipped {
		return fmt.Errorf("watch: %w", err)
	}

	rep.Reset()
	return runWatchSession(ctx, s, rep, order)
}

// runWatchSession installs watchers for an already-built order and
// blocks until the context is cancelled or an interrupt signal arrives,
// rebuilding affected projects as file-system events are debounced in.
func runWatchSession(ctx context.Context, s *engine.State, rep *reporter.Reporter, order []types.CanonicalKey) error {
	orch, err := watcher.New(250*time.Millisecond, s.Log)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer orch.Stop()

	ws := engine.NewWatchState(s, orch)
	if err := ws.StartWatching(ctx, order); err != nil {
		return fmt.Errorf("install watchers: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	orch.Start(runCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.Log.Info(ctx, "watching for file changes, press Ctrl+C to stop")
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	rep.Summary(ctx, order, s.Diagnostics)
	return nil
}
