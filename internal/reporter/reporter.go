// Package reporter turns engine state into the human-visible output of
// a build: per-project status lines, diagnostic text, and the final
// summary line.
package reporter

import (
	"context"
	"fmt"

	projerr "github.com/conneroisu/projtool/internal/errors"
	"github.com/conneroisu/projtool/internal/logging"
	"github.com/conneroisu/projtool/internal/types"
)

// Mode selects between the two final-summary shapes: a one-shot build
// prints an error-count summary, while watch mode prints a persistent
// "watching for file changes" line.
type Mode int

const (
	ModeBuild Mode = iota
	ModeWatch
)

// Reporter maintains per-project diagnostic storage and an
// errorsReported set to avoid reporting the same project's diagnostics
// twice across repeated watch-mode drains.
type Reporter struct {
	log     logging.Logger
	verbose bool
	mode    Mode

	reported map[string]bool
}

// New creates a Reporter that logs through log. verbose gates per-project
// status-line output; diagnostics are always reported regardless.
func New(log logging.Logger, verbose bool, mode Mode) *Reporter {
	return &Reporter{log: log.WithComponent("reporter"), verbose: verbose, mode: mode, reported: make(map[string]bool)}
}

// Status prints a single project's current up-to-date status, gated on
// verbose mode.
func (r *Reporter) Status(ctx context.Context, key types.CanonicalKey, kind fmt.Stringer) {
	if !r.verbose {
		return
	}
	r.log.Info(ctx, "project status", "project", string(key), "status", kind.String())
}

// Diagnostics reports every diagnostic recorded for a project exactly
// once, the way the final summary avoids double-reporting a project
// whose diagnostics were already printed during the build itself.
func (r *Reporter) Diagnostics(ctx context.Context, key types.CanonicalKey, diags []projerr.Diagnostic) {
	if r.reported[string(key)] {
		return
	}
	for _, d := range diags {
		switch d.Severity {
		case projerr.SeverityError:
			r.log.Error(ctx, d, "build diagnostic", "project", string(key), "stage", string(d.Stage))
		case projerr.SeverityWarning:
			r.log.Warn(ctx, d, "build diagnostic", "project", string(key), "stage", string(d.Stage))
		default:
			r.log.Info(ctx, d.Message, "project", string(key), "stage", string(d.Stage))
		}
	}
	if len(diags) > 0 {
		r.reported[string(key)] = true
	}
}

// Summary iterates the build order, reports any project whose
// diagnostics have not already been printed, sums error counts across
// the whole order, and emits the mode-appropriate final line.
func (r *Reporter) Summary(ctx context.Context, order []types.CanonicalKey, diags *projerr.DiagnosticCollector) {
	errCount := 0
	for _, key := range order {
		d := diags.For(string(key))
		r.Diagnostics(ctx, key, d)
		for _, dd := range d {
			if dd.Severity == projerr.SeverityError {
				errCount++
			}
		}
	}

	switch r.mode {
	case ModeWatch:
		if errCount == 0 {
			r.log.Info(ctx, "Found 0 errors. Watching for file changes.")
		} else {
			r.log.Info(ctx, fmt.Sprintf("Found %d errors. Watching for file changes.", errCount))
		}
	default:
		if errCount == 0 {
			r.log.Info(ctx, "Build succeeded.")
		} else {
			r.log.Info(ctx, fmt.Sprintf("Build failed with %d errors.", errCount))
		}
	}
}

// Reset clears the errorsReported set, used between independent build()
// invocations so each run's diagnostics are reported from scratch.
func (r *Reporter) Reset() {
	r.reported = make(map[string]bool)
}
