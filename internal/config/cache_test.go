package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/types"
)

func TestConfigCache_ResolveAppendsExtension(t *testing.T) {
	fs := host.NewMemFileSystem()
	c := NewConfigCache(fs, "", true)

	got := c.Resolve("packages/core")
	assert.Equal(t, types.ResolvedName("packages/core/projconf.json"), got)

	// Already carrying the extension: used as-is.
	got2 := c.Resolve("packages/core/projconf.json")
	assert.Equal(t, types.ResolvedName("packages/core/projconf.json"), got2)
}

func TestConfigCache_KeyCaseFolding(t *testing.T) {
	fs := host.NewMemFileSystem()
	sensitive := NewConfigCache(fs, "", true)
	insensitive := NewConfigCache(fs, "", false)

	name := types.ResolvedName("Packages/Core/projconf.json")
	assert.Equal(t, types.CanonicalKey("Packages/Core/projconf.json"), sensitive.Key(name))
	assert.Equal(t, types.CanonicalKey("packages/core/projconf.json"), insensitive.Key(name))
}

func TestConfigCache_ParseSimpleConfig(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("packages/core/projconf.json", `{
		"compilerOptions": {
			"composite": true,
			"outDir": "dist",
			"declaration": true
		},
		"references": [
			{"path": "../shared", "prepend": true}
		],
		"include": ["src/**/*.ts"]
	}`, time.Unix(1000, 0))

	c := NewConfigCache(fs, "", true)
	key := c.Key(c.Resolve("packages/core"))

	cfg, diag := c.Parse(key)
	require.Nil(t, diag)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Options.Composite)
	assert.True(t, cfg.Options.EmitDeclaration)
	assert.Equal(t, "packages/core/dist", cfg.Options.OutDir)
	require.Len(t, cfg.References, 1)
	assert.Equal(t, "packages/shared", cfg.References[0].Path)
	assert.True(t, cfg.References[0].Prepend)
	require.Len(t, cfg.WildcardDirectories, 1)
	assert.Equal(t, "packages/core/src", cfg.WildcardDirectories[0].Path)
	assert.True(t, cfg.WildcardDirectories[0].Recursive)
}

func TestConfigCache_ParseMissingFile(t *testing.T) {
	fs := host.NewMemFileSystem()
	c := NewConfigCache(fs, "", true)
	key := c.Key(c.Resolve("packages/missing"))

	cfg, diag := c.Parse(key)
	assert.Nil(t, cfg)
	require.NotNil(t, diag)
	assert.Contains(t, diag.Message, "does not exist")
}

func TestConfigCache_ParseInvalidJSON(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("packages/broken/projconf.json", `{not valid json`, time.Unix(1000, 0))
	c := NewConfigCache(fs, "", true)
	key := c.Key(c.Resolve("packages/broken"))

	cfg, diag := c.Parse(key)
	assert.Nil(t, cfg)
	require.NotNil(t, diag)
	assert.Equal(t, "packages/broken/projconf.json", diag.File)
}

func TestConfigCache_ExtendsInheritsCompilerOptions(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("base.json", `{
		"compilerOptions": {"strict": true, "target": "es2020"}
	}`, time.Unix(1000, 0))
	fs.WriteFileAt("packages/core/projconf.json", `{
		"extends": "../../base.json",
		"compilerOptions": {"outDir": "dist"}
	}`, time.Unix(1000, 0))

	c := NewConfigCache(fs, "", true)
	key := c.Key(c.Resolve("packages/core"))

	cfg, diag := c.Parse(key)
	require.Nil(t, diag)
	require.NotNil(t, cfg)
	assert.Equal(t, true, cfg.Options.Raw["strict"])
	assert.Equal(t, "es2020", cfg.Options.Raw["target"])
	assert.Equal(t, "packages/core/dist", cfg.Options.OutDir)
}

func TestConfigCache_ExtendsCycleDetected(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("a.json", `{"extends": "./b.json"}`, time.Unix(1000, 0))
	fs.WriteFileAt("b.json", `{"extends": "./a.json"}`, time.Unix(1000, 0))

	c := NewConfigCache(fs, "", true)
	cfg, diag := c.Parse(c.Key(types.ResolvedName("a.json")))
	assert.Nil(t, cfg)
	require.NotNil(t, diag)
	assert.Contains(t, diag.Message, "circularity")
}

func TestConfigCache_ParseIsMemoized(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("packages/core/projconf.json", `{"compilerOptions": {}}`, time.Unix(1000, 0))
	c := NewConfigCache(fs, "", true)
	key := c.Key(c.Resolve("packages/core"))

	cfg1, _ := c.Parse(key)
	cfg2, _ := c.Parse(key)
	assert.Same(t, cfg1, cfg2)
}

func TestConfigCache_InvalidateForcesReparse(t *testing.T) {
	fs := host.NewMemFileSystem()
	fs.WriteFileAt("packages/core/projconf.json", `{"compilerOptions": {}}`, time.Unix(1000, 0))
	c := NewConfigCache(fs, "", true)
	key := c.Key(c.Resolve("packages/core"))

	cfg1, _ := c.Parse(key)
	c.Invalidate(key)
	cfg2, _ := c.Parse(key)
	assert.NotSame(t, cfg1, cfg2)
}

func TestConfigCache_InvalidateAllClearsResolvedNames(t *testing.T) {
	fs := host.NewMemFileSystem()
	c := NewConfigCache(fs, "", true)
	first := c.Resolve("packages/core")
	c.InvalidateAll()
	second := c.Resolve("packages/core")
	assert.Equal(t, first, second)
	assert.Empty(t, c.entries)
}
