// Package types provides common type definitions used throughout projtool.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "time"

// ResolvedName is a cleaned path to a project configuration file, as
// produced by the config cache's Resolve. It is not made absolute: a
// relative reference yields a relative ResolvedName.
type ResolvedName string

// CanonicalKey is the case-folded (on case-insensitive hosts) form of a
// ResolvedName used for all map lookups in the engine's state.
type CanonicalKey string

// Reference is a directed edge from a project to one it depends on.
type Reference struct {
	// Path is the reference as written in the owning project's config,
	// resolved relative to that config's directory.
	Path string
	// Prepend marks a reference whose upstream outputs are concatenated
	// into the downstream bundle rather than merely type-checked against.
	Prepend bool
	// Circular marks a reference the project author has explicitly flagged
	// as part of an intentional cycle, suppressing the cycle diagnostic.
	Circular bool
}

// CompilerOptions is the relevant subset of a project's compiler options
// the engine must reason about to compute expected outputs and staleness.
// Fields the engine does not interpret are preserved in Raw for the
// external Program Builder.
type CompilerOptions struct {
	OutFile          string
	OutDir           string
	DeclarationDir   string
	Composite        bool
	Incremental      bool
	TsBuildInfoFile  string
	NoInputsIsError  bool
	EmitDeclaration  bool
	Raw              map[string]interface{}
}

// WildcardDirectory is a glob root contributing input files, together with
// whether it should be watched recursively.
type WildcardDirectory struct {
	Path      string
	Recursive bool
}

// ParsedConfig is a successfully parsed project configuration: its input
// file list, compiler options, references to other projects, and the
// wildcard directories that may contribute additional inputs.
type ParsedConfig struct {
	ConfigFileName    ResolvedName
	Extends           *ResolvedName
	FileNames         []string
	Options           CompilerOptions
	References        []Reference
	WildcardDirectories []WildcardDirectory
	Raw               map[string]interface{}
}

// HasOptions reports whether p is non-nil and carries compiler options
// (Options.Raw != nil). A config that parsed without any compilerOptions
// block, directly or through extends, reports false.
func (p *ParsedConfig) HasOptions() bool {
	return p != nil && p.Options.Raw != nil
}

// EventType identifies the kind of change to a tracked project.
type EventType string

const (
	EventTypeAdded   EventType = "added"
	EventTypeUpdated EventType = "updated"
	EventTypeRemoved EventType = "removed"
)

// ProjectEvent notifies registry subscribers of a project addition,
// update, or removal.
type ProjectEvent struct {
	Type      EventType
	Key       CanonicalKey
	Timestamp time.Time
}
