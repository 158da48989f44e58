package engine

import (
	"context"
	stderrors "errors"

	"github.com/conneroisu/projtool/internal/types"
)

// ActionKind discriminates the three action handles the Invalidated-
// Project Factory produces. Modeled as a tagged variant rather than a
// class hierarchy: the per-variant data lives on Action itself and
// Done dispatches on Kind.
type ActionKind int

const (
	ActionBuild ActionKind = iota
	ActionUpdateBundle
	ActionUpdateOutputFileStamps
)

// String names an ActionKind for logging.
func (k ActionKind) String() string {
	switch k {
	case ActionBuild:
		return "build"
	case ActionUpdateBundle:
		return "update-bundle"
	case ActionUpdateOutputFileStamps:
		return "update-output-file-stamps"
	default:
		return "unknown"
	}
}

// Action is a one-shot handle representing the work a single project
// needs. Done performs the action exactly once (repeat calls are a
// no-op) and always clears the project's pending-build entry when it
// returns.
type Action struct {
	Kind     ActionKind
	Key      types.CanonicalKey
	Config   *types.ParsedConfig
	state    *State
	ran      bool
}

// errBuildInfoUnreadable signals that an UpdateBundle action's
// build-info artifact could not be read or applied; Done catches this
// and transparently converts the action into a full Build.
var errBuildInfoUnreadable = stderrors.New("build info unreadable")

// Done performs the action if it has not already run, then clears the
// project's pending-build entry.
func (a *Action) Done(ctx context.Context) (BuildResultFlags, error) {
	if a.ran {
		return ResultNone, nil
	}
	a.ran = true

	var flags BuildResultFlags
	var err error
	switch a.Kind {
	case ActionBuild:
		flags, err = a.state.runBuild(ctx, a)
	case ActionUpdateBundle:
		flags, err = a.state.runUpdateBundle(ctx, a)
		if stderrors.Is(err, errBuildInfoUnreadable) {
			a.Kind = ActionBuild
			flags, err = a.state.runBuild(ctx, a)
		}
	case ActionUpdateOutputFileStamps:
		flags, err = a.state.runUpdateOutputFileStamps(ctx, a)
	}

	delete(a.state.pendingBuild, a.Key)
	return flags, err
}

// GetNextInvalidatedProject iterates order and returns an Action for
// the first project whose pending-build entry is set: it applies the
// pending reload level, evaluates status, and resolves short-circuiting
// statuses (up to date, upstream blocked, container) before choosing
// between Build and UpdateBundle via needsBuild. Returns (nil, false)
// once no project has a pending entry.
func (s *State) GetNextInvalidatedProject(order []types.CanonicalKey) (*Action, bool) {
	for _, key := range order {
		level, pending := s.pendingBuild[key]
		if !pending {
			continue
		}
		s.applyReloadLevel(key, level)

		cfg, diag := s.Cache.Parse(key)
		if diag != nil {
			delete(s.pendingBuild, key)
			continue
		}

		status := s.EvaluateStatus(key)

		switch status.Kind {
		case StatusUpToDate:
			if !s.Config.Force {
				delete(s.pendingBuild, key)
				if s.Config.Dry {
					s.Log.Info(context.Background(), "project is up to date", "project", string(key))
				}
				continue
			}
		case StatusUpToDateWithUpstreamTypes:
			if !s.Config.Force {
				return &Action{Kind: ActionUpdateOutputFileStamps, Key: key, Config: cfg, state: s}, true
			}
		case StatusUpstreamBlocked:
			delete(s.pendingBuild, key)
			if s.Config.Verbose {
				s.Log.Warn(context.Background(), nil, "dependency has errors, skipping project", "project", string(key), "dependency", status.UpstreamProjectName)
			}
			continue
		case StatusContainerOnly:
			delete(s.pendingBuild, key)
			continue
		}

		kind := ActionBuild
		if s.needsBuild(key, cfg, status) == ActionUpdateBundle {
			kind = ActionUpdateBundle
		}
		return &Action{Kind: kind, Key: key, Config: cfg, state: s}, true
	}
	return nil, false
}

// applyReloadLevel re-processes a project's configuration according to
// its pending reload level before status is (re-)evaluated: Full
// invalidates the cached config and the whole build order (the
// project's watchers are left as they were installed); Partial only forces the status
// memo to be dropped so wildcard directories are re-expanded; None
// leaves both alone (the caller already cleared status when it queued
// the project).
func (s *State) applyReloadLevel(key types.CanonicalKey, level ReloadLevel) {
	switch level {
	case ReloadFull:
		s.Cache.Invalidate(key)
		s.Graph.Invalidate()
		s.clearStatus(key)
	case ReloadPartial:
		s.clearStatus(key)
	case ReloadNone:
	}
}

// needsBuild chooses between Build and UpdateBundle for a project whose
// status is not one of the short-circuiting kinds handled by
// GetNextInvalidatedProject. Only a project whose status is exactly
// OutOfDateWithPrepend, with a non-empty input list, no recorded
// errors, and incremental compilation enabled, is eligible for
// UpdateBundle; everything else forces a full Build.
func (s *State) needsBuild(key types.CanonicalKey, cfg *types.ParsedConfig, status *Status) ActionKind {
	if s.Config.Force {
		return ActionBuild
	}
	if status.Kind != StatusOutOfDateWithPrepend {
		return ActionBuild
	}
	inputs, err := s.inputFiles(cfg)
	if err != nil || len(inputs) == 0 {
		return ActionBuild
	}
	if s.Diagnostics.HasErrors(string(key)) {
		return ActionBuild
	}
	if !cfg.Options.Incremental {
		return ActionBuild
	}
	return ActionUpdateBundle
}
