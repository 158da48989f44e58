// Package engine implements the build orchestrator core: the Up-to-Date
// Evaluator, the Invalidated-Project Factory, and the Build Driver that
// together decide, for a set of root projects, which projects are stale
// and in what order to rebuild them. The engine never
// touches source files directly; it delegates parsing and emission to
// the host.ProgramBuilder collaborator and file I/O to host.FileSystem,
// so the whole package is testable against an in-memory host.
package engine

import (
	"sync"
	"time"

	"github.com/conneroisu/projtool/internal/build"
	"github.com/conneroisu/projtool/internal/config"
	"github.com/conneroisu/projtool/internal/errors"
	"github.com/conneroisu/projtool/internal/graph"
	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/logging"
	"github.com/conneroisu/projtool/internal/registry"
	"github.com/conneroisu/projtool/internal/scanner"
	"github.com/conneroisu/projtool/internal/types"
)

// ReloadLevel is the severity of re-processing requested for a
// project's next build: None only re-evaluates status, Partial
// re-expands wildcard inputs, Full re-reads configuration and
// recomputes the build order. No level adds, removes or rewires
// watchers. Levels are strictly ordered None < Partial < Full.
type ReloadLevel int

const (
	ReloadNone ReloadLevel = iota
	ReloadPartial
	ReloadFull
)

// EngineConfig carries the CLI-visible options the engine's own
// behavior depends on; the rest of the CLI surface is the Reporter's
// and the cmd layer's concern.
type EngineConfig struct {
	// Version identifies this engine build, compared against a
	// project's persisted build-info for the TsVersionOutputOfDate gate.
	Version string
	Dry     bool
	Force   bool
	Verbose bool
}

// ExitStatus is the overall result of a Build invocation.
type ExitStatus int

const (
	Success ExitStatus = iota
	DiagnosticsPresentOutputsGenerated
	DiagnosticsPresentOutputsSkipped
	InvalidProjectOutputsSkipped
)

// BuildResultFlags records which stage of a single project's build, if
// any, produced diagnostics.
type BuildResultFlags int

const (
	ResultNone BuildResultFlags = 0
	ResultConfigErrors BuildResultFlags = 1 << (iota - 1)
	ResultSyntaxErrors
	ResultTypeErrors
	ResultDeclarationErrors
	ResultEmitErrors
)

// State is the engine's entire mutable state: the status memo, the
// pending-build queue, and retained "old" programs for watch-mode
// reuse. It is owned by a single caller and passed by reference into
// every operation rather than kept in package-level globals, so an
// independent engine per test is just another State value and watcher
// scope stays explicit.
type State struct {
	Config EngineConfig

	Cache    *config.ConfigCache
	Graph    *graph.Builder
	Scanner  *scanner.Expander
	Programs host.ProgramBuilder
	FS       host.FileSystem
	Clock    host.Clock
	Log      logging.Logger

	Diagnostics *errors.DiagnosticCollector
	Hashes      *build.HashProvider
	Registry    *registry.Registry

	mu sync.Mutex

	statuses     map[types.CanonicalKey]*Status
	pendingBuild map[types.CanonicalKey]ReloadLevel
	oldPrograms  map[types.CanonicalKey]host.Program
	needsSummary bool
	cacheDepth   int
}

// NewState constructs an empty engine State from its collaborators.
func NewState(
	cfg EngineConfig,
	cache *config.ConfigCache,
	g *graph.Builder,
	scan *scanner.Expander,
	programs host.ProgramBuilder,
	fs host.FileSystem,
	clock host.Clock,
	log logging.Logger,
) *State {
	return &State{
		Config:       cfg,
		Cache:        cache,
		Graph:        g,
		Scanner:      scan,
		Programs:     programs,
		FS:           fs,
		Clock:        clock,
		Log:          log,
		Diagnostics:  errors.NewDiagnosticCollector(),
		Hashes:       build.NewHashProvider(),
		Registry:     registry.New(),
		statuses:     make(map[types.CanonicalKey]*Status),
		pendingBuild: make(map[types.CanonicalKey]ReloadLevel),
		oldPrograms:  make(map[types.CanonicalKey]host.Program),
	}
}

// EnableCache and DisableCache bracket a Build call, mirroring a
// scoped file-content cache. The ConfigCache already memoizes
// parsed configuration for the lifetime of the process (evicted only by
// an explicit Full invalidation), so there is no separate read-cache
// layer to enable here; these track nesting depth only so callers that
// wrap watch-mode's repeated builds in one logical "session" can still
// call them without double-disabling.
func (s *State) EnableCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheDepth++
}

// DisableCache reverses EnableCache.
func (s *State) DisableCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheDepth > 0 {
		s.cacheDepth--
	}
}

// markPending raises key's pending reload level to at least level,
// never lowering it: pendingBuild must stay monotonically
// non-decreasing over an invocation.
func (s *State) markPending(key types.CanonicalKey, level ReloadLevel) {
	if cur, ok := s.pendingBuild[key]; !ok || level > cur {
		s.pendingBuild[key] = level
	}
}

// clearStatus drops a project's cached status, forcing re-evaluation.
func (s *State) clearStatus(key types.CanonicalKey) {
	delete(s.statuses, key)
}

// StatusOf returns the last-computed status for key, or nil if none has
// been cached yet.
func (s *State) StatusOf(key types.CanonicalKey) *Status {
	return s.statuses[key]
}

// Pending reports a project's current queued reload level, if any.
func (s *State) Pending(key types.CanonicalKey) (ReloadLevel, bool) {
	level, ok := s.pendingBuild[key]
	return level, ok
}

func (s *State) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

func (s *State) recordDiagnostic(key types.CanonicalKey, diag *errors.Diagnostic) {
	s.Diagnostics.Add(string(key), *diag)
}

func (s *State) recordDiagnostics(key types.CanonicalKey, stage errors.Stage, messages []string) {
	for _, msg := range messages {
		s.Diagnostics.Add(string(key), errors.Diagnostic{
			Stage:    stage,
			Severity: errors.SeverityError,
			File:     string(key),
			Message:  msg,
		})
	}
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
