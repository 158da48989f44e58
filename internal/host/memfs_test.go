package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFileSystem_ReadWrite(t *testing.T) {
	fs := NewMemFileSystem()
	fs.WriteFileAt("src/a.ts", "export const a = 1", time.Unix(100, 0))

	text, ok, err := fs.ReadFile("src/a.ts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "export const a = 1", text)
}

func TestMemFileSystem_MissingFileModifiedTime(t *testing.T) {
	fs := NewMemFileSystem()
	mtime, ok := fs.GetModifiedTime("nope.ts")
	assert.False(t, ok)
	assert.Equal(t, MissingFileModifiedTime, mtime)
}

func TestMemFileSystem_SetModifiedTime(t *testing.T) {
	fs := NewMemFileSystem()
	fs.WriteFileAt("a.ts", "x", time.Unix(100, 0))

	require.NoError(t, fs.SetModifiedTime("a.ts", time.Unix(200, 0)))
	mtime, ok := fs.GetModifiedTime("a.ts")
	require.True(t, ok)
	assert.Equal(t, time.Unix(200, 0), mtime)

	assert.Error(t, fs.SetModifiedTime("missing.ts", time.Unix(200, 0)))
}

func TestMemFileSystem_DeleteFile(t *testing.T) {
	fs := NewMemFileSystem()
	fs.WriteFileAt("a.ts", "x", time.Unix(100, 0))
	require.NoError(t, fs.DeleteFile("a.ts"))
	assert.False(t, fs.FileExists("a.ts"))
}

func TestMemFileSystem_ReadDirListsChildren(t *testing.T) {
	fs := NewMemFileSystem()
	fs.WriteFileAt("src/a.ts", "a", time.Unix(100, 0))
	fs.WriteFileAt("src/b.ts", "b", time.Unix(100, 0))
	fs.CreateDirectory("src/nested")

	entries, err := fs.ReadDir("src")
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.ElementsMatch(t, []string{"a.ts", "b.ts", "nested"}, names)
}

func TestHasPrefixDir(t *testing.T) {
	assert.True(t, HasPrefixDir("src", "src/a.ts"))
	assert.True(t, HasPrefixDir("src", "src"))
	assert.False(t, HasPrefixDir("src", "lib/a.ts"))
}
