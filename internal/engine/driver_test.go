package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/projtool/internal/build"
	"github.com/conneroisu/projtool/internal/config"
	"github.com/conneroisu/projtool/internal/graph"
	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/logging"
	"github.com/conneroisu/projtool/internal/scanner"
)

// setupTwoProjects seeds an in-memory file system with two projects, B
// referencing A, both stale with no outputs yet.
func setupTwoProjects(t *testing.T) (*State, *host.MemFileSystem) {
	t.Helper()
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("a/projconf.json", `{
		"compilerOptions": {"composite": true, "declaration": true, "outDir": "out"},
		"files": ["a.ts"]
	}`, time.Unix(1, 0))
	fs.WriteFileAt("a/a.ts", "export const a = 1;", time.Unix(10, 0))

	fs.WriteFileAt("b/projconf.json", `{
		"compilerOptions": {"composite": true, "outDir": "out"},
		"references": [{"path": "../a"}],
		"files": ["b.ts"]
	}`, time.Unix(1, 0))
	fs.WriteFileAt("b/b.ts", "export const b = 1;", time.Unix(10, 0))

	cache := config.NewConfigCache(fs, "", true)
	g := graph.NewBuilder(cache)
	scan := scanner.New(fs)
	programs := build.NewDefaultProgramBuilder(fs)
	log := logging.NewTestLogger()

	s := NewState(EngineConfig{Version: "1.0.0"}, cache, g, scan, programs, fs, host.RealClock{}, log)
	return s, fs
}

func TestState_Build_TwoProjectsDependencyOrder(t *testing.T) {
	s, fs := setupTwoProjects(t)

	status, err := s.Build(context.Background(), []string{"b"}, "")
	require.NoError(t, err)
	assert.Equal(t, Success, status)

	assert.True(t, fs.FileExists("a/out/a.js"))
	assert.True(t, fs.FileExists("a/out/a.d.ts"))
	assert.True(t, fs.FileExists("b/out/b.js"))

	aKey := s.Cache.Key(s.Cache.Resolve("a"))
	bKey := s.Cache.Key(s.Cache.Resolve("b"))
	assert.Equal(t, StatusUpToDate, s.StatusOf(aKey).Kind)
	assert.Equal(t, StatusUpToDate, s.StatusOf(bKey).Kind)
}

func TestState_Build_SecondRunIsIdempotent(t *testing.T) {
	s, fs := setupTwoProjects(t)
	ctx := context.Background()

	_, err := s.Build(ctx, []string{"b"}, "")
	require.NoError(t, err)

	beforeA, _ := fs.GetModifiedTime("a/out/a.js")
	beforeB, _ := fs.GetModifiedTime("b/out/b.js")

	status, err := s.Build(ctx, []string{"b"}, "")
	require.NoError(t, err)
	assert.Equal(t, Success, status)

	afterA, _ := fs.GetModifiedTime("a/out/a.js")
	afterB, _ := fs.GetModifiedTime("b/out/b.js")
	assert.Equal(t, beforeA, afterA)
	assert.Equal(t, beforeB, afterB)
}

func TestState_Build_MissingInputBlocksDownstream(t *testing.T) {
	s, fs := setupTwoProjects(t)
	fs.DeleteFile("a/a.ts")

	status, err := s.Build(context.Background(), []string{"b"}, "")
	require.NoError(t, err)
	assert.Equal(t, DiagnosticsPresentOutputsSkipped, status)

	aKey := s.Cache.Key(s.Cache.Resolve("a"))
	bKey := s.Cache.Key(s.Cache.Resolve("b"))
	assert.Equal(t, StatusUnbuildable, s.StatusOf(aKey).Kind)
	assert.Equal(t, StatusUpstreamBlocked, s.StatusOf(bKey).Kind)
	assert.True(t, s.Diagnostics.HasErrors(string(aKey)))
}

func TestState_Build_ForceRebuildsEvenWhenUpToDate(t *testing.T) {
	s, fs := setupTwoProjects(t)
	ctx := context.Background()

	_, err := s.Build(ctx, []string{"b"}, "")
	require.NoError(t, err)

	s.Config.Force = true
	beforeA, _ := fs.GetModifiedTime("a/out/a.js")

	_, err = s.Build(ctx, []string{"b"}, "")
	require.NoError(t, err)

	afterA, _ := fs.GetModifiedTime("a/out/a.js")
	assert.True(t, !afterA.Before(beforeA))
}

func TestState_Build_DryRunNeverWrites(t *testing.T) {
	s, fs := setupTwoProjects(t)
	s.Config.Dry = true

	_, err := s.Build(context.Background(), []string{"b"}, "")
	require.NoError(t, err)

	assert.False(t, fs.FileExists("a/out/a.js"))
	assert.False(t, fs.FileExists("b/out/b.js"))
}

func TestState_Build_InvalidProjectReturnsInvalidProjectStatus(t *testing.T) {
	s, _ := setupTwoProjects(t)

	status, err := s.Build(context.Background(), []string{"b"}, "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, InvalidProjectOutputsSkipped, status)
}
