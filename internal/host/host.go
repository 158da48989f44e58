// Package host defines the external collaborators the engine delegates
// to: the file system, the clock, and the compiler pipeline (Program
// Builder). File watching lives in internal/watcher. The engine itself never touches
// os.* directly outside this package's default implementation, so
// tests can swap in an in-memory FileSystem and a controllable Clock.
package host

import (
	"context"
	"io"
	"os"
	"time"
)

// FileSystem is the subset of file-system operations the engine needs.
// A missing file is represented by FileExists returning false and
// GetModifiedTime returning MissingFileModifiedTime with ok == false;
// callers check the ok result rather than the returned time.
type FileSystem interface {
	ReadFile(path string) (string, bool, error)
	FileExists(path string) bool
	WriteFile(path string, text string, writeBOM bool) error
	DeleteFile(path string) error
	DirectoryExists(path string) bool
	CreateDirectory(path string) error
	GetModifiedTime(path string) (time.Time, bool)
	SetModifiedTime(path string, t time.Time) error
	Glob(pattern string) ([]string, error)
	ReadDir(path string) ([]os.DirEntry, error)
}

// Clock supplies the current time; injectable so tests can control
// setModifiedTime behavior deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock is the default Clock backed by the system clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// MissingFileModifiedTime is the sentinel modification time for a file
// that does not exist: earlier than any real time.
var MissingFileModifiedTime = time.Unix(0, 1)

// MinimumDate and MaximumDate bound the time lattice the Up-to-Date
// Evaluator reasons over.
var (
	MinimumDate = time.Unix(0, 0)
	MaximumDate = time.Unix(1<<62, 0)
)

// Emitter receives emitted output during a build, the way the Program
// Builder's emit() writes files through a writer.
type Emitter interface {
	EmitFile(name string, contents string, isDeclaration bool) error
}

// Program is a built compiler program: a single project's parsed
// config, run through the (external, black-box) compiler front end far
// enough to produce diagnostics and, on request, emitted output.
type Program interface {
	// ConfigFileDiagnostics, OptionsDiagnostics, GlobalDiagnostics, and
	// SyntacticDiagnostics are checked in that order; the first
	// non-empty one stops the build.
	ConfigFileDiagnostics() []string
	OptionsDiagnostics() []string
	GlobalDiagnostics() []string
	SyntacticDiagnostics() []string
	SemanticDiagnostics() []string
	DeclarationDiagnostics() []string

	// Emit runs the emitter, invoking w for every output file. It
	// returns any diagnostics raised during emit (distinct from
	// DeclarationDiagnostics, which are raised during declaration
	// *checking* rather than *writing*).
	Emit(ctx context.Context, w Emitter) ([]string, error)

	// BackupState/RestoreState bracket declaration emit so an
	// emitter that mutates shared program state can be rolled back
	// on failure; droppable once Emit is idempotent.
	BackupState()
	RestoreState()

	// Release drops any retained resources. Called when a program is
	// no longer needed as an "old program" memo.
	Release()
}

// ProgramBuilder is the compiler pipeline's entry point: given a
// project's resolved inputs, options, an optional prior program to
// reuse (watch mode), recorded config errors, and reference paths, it
// produces a Program. The default implementation in internal/build
// wires it to a real (if minimal) type-checker-shaped pipeline so the
// rest of the engine has something concrete to drive.
type ProgramBuilder interface {
	CreateProgram(ctx context.Context, req CreateProgramRequest) (Program, error)
	// EmitUsingBuildInfo performs the UpdateBundle action: regenerate
	// non-declaration outputs from persisted build-info without
	// creating a full Program.
	EmitUsingBuildInfo(ctx context.Context, req BuildInfoEmitRequest) error
}

// CreateProgramRequest bundles everything CreateProgram needs.
type CreateProgramRequest struct {
	Files           []string
	Options         map[string]interface{}
	OldProgram      Program
	ConfigErrors    []string
	ReferencePaths  []string
	ProjectDir      string
}

// BuildInfoEmitRequest bundles everything EmitUsingBuildInfo needs.
type BuildInfoEmitRequest struct {
	BuildInfoPath string
	ProjectDir    string
}

// Writer is a minimal stand-in for the compiler's diagnostic writer,
// used by Program implementations that want to stream text rather than
// buffer it.
type Writer = io.Writer
