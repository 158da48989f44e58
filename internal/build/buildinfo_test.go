package build

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/projtool/internal/host"
)

func TestBuildInfo_RoundTrip(t *testing.T) {
	fs := host.NewMemFileSystem()
	info := &Info{Version: "1.0.0", BuiltAt: time.Unix(100, 0), OutputHashes: map[string]string{"out.js": "abc"}}

	require.NoError(t, WriteBuildInfo(fs, "proj.tsbuildinfo", info))

	loaded, ok, err := ReadBuildInfo(fs, "proj.tsbuildinfo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, info.Version, loaded.Version)
	assert.Equal(t, info.OutputHashes, loaded.OutputHashes)
}

func TestBuildInfo_MissingFileIsNotAnError(t *testing.T) {
	fs := host.NewMemFileSystem()
	info, ok, err := ReadBuildInfo(fs, "missing.tsbuildinfo")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, info)
}
