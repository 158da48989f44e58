package cmd

import (
	"fmt"
	"os"

	"github.com/conneroisu/projtool/internal/build"
	"github.com/conneroisu/projtool/internal/config"
	"github.com/conneroisu/projtool/internal/engine"
	"github.com/conneroisu/projtool/internal/graph"
	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/logging"
	"github.com/conneroisu/projtool/internal/scanner"
	"github.com/conneroisu/projtool/internal/version"
)

// newState wires a fresh engine.State against the real OS file system.
// Tool-wide settings come from config.Load, which merges .projtool.yml,
// PROJTOOL_ environment variables, and the CLI flags bound in root.go
// with that precedence order. Every subcommand that drives the engine
// shares this construction so the collaborator wiring lives in exactly
// one place.
func newState() *engine.State {
	toolCfg, err := config.Load()
	if err != nil {
		toolCfg = &config.ToolConfig{}
	}

	fs := host.NewOSFileSystem()
	cache := config.NewConfigCache(fs, toolCfg.Engine.ConfigExtension, toolCfg.Engine.CaseSensitiveHost)
	g := graph.NewBuilder(cache)
	scan := scanner.New(fs)
	programs := build.NewDefaultProgramBuilder(fs)

	level := logging.LevelInfo
	if toolCfg.Engine.Verbose {
		level = logging.LevelDebug
	}
	format := toolCfg.Log.Format
	if format == "" {
		format = "text"
	}

	cfg := engine.EngineConfig{
		Version: version.GetVersion(),
		Dry:     toolCfg.Engine.Dry,
		Force:   toolCfg.Engine.Force,
		Verbose: toolCfg.Engine.Verbose,
	}

	return engine.NewState(cfg, cache, g, scan, programs, fs, host.RealClock{}, consoleLogger(level, format))
}

// consoleLogger builds a logger writing to stderr, since build/status
// output belongs on stdout and diagnostics should not interleave with it.
func consoleLogger(level logging.LogLevel, format string) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    os.Stderr,
		AddSource: false,
	})
}

// resolveRoots turns positional CLI arguments into project roots,
// defaulting to the current directory's config file when none are given.
func resolveRoots(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

func exitStatusError(status engine.ExitStatus) error {
	switch status {
	case engine.Success:
		return nil
	case engine.DiagnosticsPresentOutputsGenerated:
		return fmt.Errorf("build completed with diagnostics; some outputs were generated")
	case engine.DiagnosticsPresentOutputsSkipped:
		return fmt.Errorf("build failed; diagnostics present and outputs skipped")
	case engine.InvalidProjectOutputsSkipped:
		return fmt.Errorf("invalid project")
	default:
		return fmt.Errorf("unknown exit status")
	}
}
