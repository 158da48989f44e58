package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/types"
)

func TestExpander_NonRecursiveOnlyTopLevel(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("src/a.ts", "", time.Unix(1, 0))
	fs.WriteFileAt("src/nested/b.ts", "", time.Unix(1, 0))

	e := New(fs)
	files, err := e.Expand([]types.WildcardDirectory{{Path: "src", Recursive: false}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, files)
}

func TestExpander_RecursiveDescendsSubdirectories(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("src/a.ts", "", time.Unix(1, 0))
	fs.WriteFileAt("src/nested/b.ts", "", time.Unix(1, 0))

	e := New(fs)
	files, err := e.Expand([]types.WildcardDirectory{{Path: "src", Recursive: true}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts", "src/nested/b.ts"}, files)
}

func TestExpander_SkipsKnownNoiseDirectories(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("src/a.ts", "", time.Unix(1, 0))
	fs.WriteFileAt("src/node_modules/dep/index.ts", "", time.Unix(1, 0))

	e := New(fs)
	files, err := e.Expand([]types.WildcardDirectory{{Path: "src", Recursive: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, files)
}

func TestExpander_IgnoresNonInputExtensions(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("src/a.ts", "", time.Unix(1, 0))
	fs.WriteFileAt("src/README.md", "", time.Unix(1, 0))

	e := New(fs)
	files, err := e.Expand([]types.WildcardDirectory{{Path: "src", Recursive: false}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, files)
}

func TestExpander_MissingDirectoryYieldsNoFiles(t *testing.T) {
	fs := host.NewMemFileSystem()
	e := New(fs)
	files, err := e.Expand([]types.WildcardDirectory{{Path: "missing", Recursive: true}})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExpander_RejectsPathTraversal(t *testing.T) {
	fs := host.NewMemFileSystem()
	e := New(fs)
	_, err := e.Expand([]types.WildcardDirectory{{Path: "../../etc", Recursive: true}})
	assert.Error(t, err)
}
