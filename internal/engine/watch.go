package engine

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/conneroisu/projtool/internal/types"
	"github.com/conneroisu/projtool/internal/watcher"
)

// WatchState extends State with the watch-mode wiring: config-file,
// wildcard-directory, and input-file watchers per project, each event
// classified and translated into a reload level and fed back into the
// pending-build queue.
type WatchState struct {
	*State
	Orchestrator *watcher.Orchestrator

	order     []types.CanonicalKey
	installed map[types.CanonicalKey]bool
}

// NewWatchState pairs an engine State with a watcher.Orchestrator.
func NewWatchState(s *State, orch *watcher.Orchestrator) *WatchState {
	return &WatchState{State: s, Orchestrator: orch, installed: make(map[types.CanonicalKey]bool)}
}

// StartWatching installs watchers for every project in order and wires
// debounced file-system events back into the build driver. Watchers are
// created once per project, here; a later Full reload does not add,
// remove or rewire them, so a config file, wildcard directory or
// project that first appears after watching starts is not watched.
func (w *WatchState) StartWatching(ctx context.Context, order []types.CanonicalKey) error {
	w.order = order
	w.Orchestrator.AddHandler(func(events []watcher.ChangeEvent) {
		for _, ev := range events {
			w.handleEvent(ev)
		}
		w.drain(ctx)
	})
	for _, key := range order {
		if err := w.installWatchers(key); err != nil {
			return err
		}
	}
	return nil
}

func (w *WatchState) installWatchers(key types.CanonicalKey) error {
	cfg, diag := w.Cache.Parse(key)
	if diag != nil {
		return nil
	}
	if err := w.Orchestrator.Watch(string(cfg.ConfigFileName)); err != nil {
		return err
	}
	for _, dir := range cfg.WildcardDirectories {
		var err error
		if dir.Recursive {
			err = w.Orchestrator.WatchRecursive(dir.Path)
		} else {
			err = w.Orchestrator.Watch(dir.Path)
		}
		if err != nil {
			return err
		}
	}
	for _, f := range cfg.FileNames {
		if err := w.Orchestrator.Watch(f); err != nil {
			return err
		}
	}
	w.installed[key] = true
	return nil
}

// drain repeatedly dequeues and executes invalidated projects until
// none remain. The Build Driver is single-threaded and this handler
// runs on the watcher's own debounce timer, so draining every pending
// project inline here needs no second timer: nothing else can observe
// engine state mid-drain either way.
func (w *WatchState) drain(ctx context.Context) {
	for {
		key, ok, err := w.State.BuildNextProject(ctx, w.order)
		if !ok {
			return
		}
		if err != nil {
			w.Log.Error(ctx, err, "build failed", "project", string(key))
		}
	}
}

// handleEvent classifies a single debounced file-system change and
// invalidates the owning project at the appropriate reload level: a
// config-file change is Full, an input-file change is None, and a
// wildcard-directory change is Partial unless the changed path is
// itself a known output or a non-source extension.
func (w *WatchState) handleEvent(ev watcher.ChangeEvent) {
	for _, key := range w.order {
		cfg, diag := w.Cache.Parse(key)
		if diag != nil {
			continue
		}
		if string(cfg.ConfigFileName) == ev.Path {
			w.invalidateProject(key, ReloadFull)
			return
		}
		for _, f := range cfg.FileNames {
			if f == ev.Path {
				w.invalidateProject(key, ReloadNone)
				return
			}
		}
		for _, dir := range cfg.WildcardDirectories {
			if !isUnder(dir.Path, ev.Path) {
				continue
			}
			if w.isOutputPath(cfg, ev.Path) {
				return
			}
			if !hasSourceExtension(ev.Path) {
				return
			}
			w.invalidateProject(key, ReloadPartial)
			return
		}
	}
}

func (w *WatchState) invalidateProject(key types.CanonicalKey, level ReloadLevel) {
	w.clearStatus(key)
	if level == ReloadFull {
		w.Graph.Invalidate()
	}
	w.needsSummary = true
	w.markPending(key, level)
}

// isOutputPath classifies a wildcard-directory event path as belonging
// to the project's own output tree rather than its inputs.
func (w *WatchState) isOutputPath(cfg *types.ParsedConfig, path string) bool {
	if cfg.Options.OutFile == "" && cfg.Options.OutDir == "" && !cfg.Options.EmitDeclaration {
		return false
	}
	if !hasSourceExtension(path) {
		return true
	}
	if cfg.Options.OutFile != "" {
		ext := filepath.Ext(cfg.Options.OutFile)
		if path == cfg.Options.OutFile || path == strings.TrimSuffix(cfg.Options.OutFile, ext)+".d.ts" {
			return true
		}
	}
	if cfg.Options.DeclarationDir != "" && strings.HasSuffix(path, ".d.ts") && isUnder(cfg.Options.DeclarationDir, path) {
		return true
	}
	if cfg.Options.OutDir != "" && isUnder(cfg.Options.OutDir, path) {
		return true
	}
	for _, f := range cfg.FileNames {
		if f == path {
			return false
		}
	}
	return false
}

func hasSourceExtension(path string) bool {
	for _, ext := range []string{".ts", ".tsx", ".d.ts"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func isUnder(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
