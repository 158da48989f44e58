package build

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/projtool/internal/host"
)

func TestHashProvider_ContentHash_StableForUnchangedFile(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("out.d.ts", "export declare const a: number;", time.Unix(100, 0))
	hp := NewHashProvider()

	h1, err := hp.ContentHash(fs, "out.d.ts")
	require.NoError(t, err)
	h2, err := hp.ContentHash(fs, "out.d.ts")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashProvider_ContentHash_ChangesWithContent(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("out.d.ts", "export declare const a: number;", time.Unix(100, 0))
	hp := NewHashProvider()

	h1, err := hp.ContentHash(fs, "out.d.ts")
	require.NoError(t, err)

	fs.WriteFileAt("out.d.ts", "export declare const a: string;", time.Unix(200, 0))
	h2, err := hp.ContentHash(fs, "out.d.ts")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHashProvider_ContentHash_MissingFile(t *testing.T) {
	fs := host.NewMemFileSystem()
	hp := NewHashProvider()
	_, err := hp.ContentHash(fs, "missing.d.ts")
	assert.Error(t, err)
}

func TestHashProvider_HashTextMatchesContentHash(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("out.d.ts", "export {}", time.Unix(100, 0))
	hp := NewHashProvider()

	fromFile, err := hp.ContentHash(fs, "out.d.ts")
	require.NoError(t, err)
	fromText := hp.HashText("export {}")
	assert.Equal(t, fromFile, fromText)
}
