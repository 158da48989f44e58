// Package errors provides structured build diagnostics for projtool.
//
// Diagnostics are data, not exceptions (per the engine's error-handling
// design): every stage of project evaluation and building that can fail
// records a Diagnostic against the owning project's canonical key rather
// than returning early up an exception channel. The DiagnosticCollector
// is the single authoritative store the Reporter reads from when it
// produces the final summary.
package errors

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Stage identifies which phase of project processing produced a
// Diagnostic. Stages are ordered the way the Build Driver checks them:
// a project stops at the first non-empty stage.
type Stage string

const (
	StageConfigFile      Stage = "config_file"
	StageOptions         Stage = "options"
	StageGlobal          Stage = "global"
	StageSyntactic       Stage = "syntactic"
	StageSemantic        Stage = "semantic"
	StageDeclarationEmit Stage = "declaration_emit"
	StageEmit            Stage = "emit"
	StageInput           Stage = "input"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single positioned message produced while resolving,
// evaluating, or building a project.
type Diagnostic struct {
	Stage     Stage
	Severity  Severity
	File      string
	Line      int
	Column    int
	Message   string
	Timestamp time.Time
}

// Error implements the error interface so a Diagnostic can be returned
// or wrapped anywhere a plain error is expected.
func (d Diagnostic) Error() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
}

// DiagnosticCollector stores diagnostics per project key. It is not
// safe for concurrent use by design: the engine is single-threaded
// (spec §5), and a single owner holds the collector alongside every
// other piece of engine state.
type DiagnosticCollector struct {
	byProject map[string][]Diagnostic
	order     []string
}

// NewDiagnosticCollector creates an empty collector.
func NewDiagnosticCollector() *DiagnosticCollector {
	return &DiagnosticCollector{byProject: make(map[string][]Diagnostic)}
}

// Add records a diagnostic against a project key.
func (c *DiagnosticCollector) Add(key string, d Diagnostic) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	if _, ok := c.byProject[key]; !ok {
		// A key cleared earlier keeps its first-seen position.
		seen := false
		for _, k := range c.order {
			if k == key {
				seen = true
				break
			}
		}
		if !seen {
			c.order = append(c.order, key)
		}
	}
	c.byProject[key] = append(c.byProject[key], d)
}

// Clear removes all diagnostics recorded for a project key. Used when a
// project is invalidated and re-evaluated from scratch.
func (c *DiagnosticCollector) Clear(key string) {
	delete(c.byProject, key)
}

// For returns the diagnostics recorded for a project key, in the order
// they were added. A non-empty result means the project is reported
// as errored.
func (c *DiagnosticCollector) For(key string) []Diagnostic {
	return c.byProject[key]
}

// HasErrors reports whether any diagnostic recorded for key has
// SeverityError.
func (c *DiagnosticCollector) HasErrors(key string) bool {
	for _, d := range c.byProject[key] {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Keys returns the project keys that have ever had a diagnostic
// recorded, in first-seen order.
func (c *DiagnosticCollector) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Combined folds every error-severity diagnostic across every project
// into a single multi-error, for callers (the CLI boundary) that need
// one `error` rather than a per-project diagnostic map.
func (c *DiagnosticCollector) Combined() error {
	var combined error
	for _, key := range c.order {
		for _, d := range c.byProject[key] {
			if d.Severity == SeverityError {
				combined = multierr.Append(combined, d)
			}
		}
	}
	return combined
}

// ErrorCount returns the total number of error-severity diagnostics
// across all projects, for the Reporter's final summary line.
func (c *DiagnosticCollector) ErrorCount() int {
	n := 0
	for _, ds := range c.byProject {
		for _, d := range ds {
			if d.Severity == SeverityError {
				n++
			}
		}
	}
	return n
}

