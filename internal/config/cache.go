package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spyzhov/ajson"

	"github.com/conneroisu/projtool/internal/errors"
	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/types"
)

// ConfigCache is the Path & Config Cache: it resolves project
// references to config file paths, canonicalizes those paths into
// cache keys, and lazily parses and memoizes each project's config.
// A parsed entry stays cached until it is evicted (Invalidate for one
// project on a Full reload, InvalidateAll for every project), so the
// same *types.ParsedConfig pointer can be handed out repeatedly within
// one build.
type ConfigCache struct {
	fs            host.FileSystem
	extension     string
	caseSensitive bool

	mu       sync.Mutex
	resolved map[string]types.ResolvedName
	entries  map[types.CanonicalKey]*cacheEntry
}

type cacheEntry struct {
	config     *types.ParsedConfig
	diagnostic *errors.Diagnostic
}

// NewConfigCache builds a ConfigCache backed by fs. extension is
// appended to a bare directory reference when resolving it to a config
// file (DefaultConfigExtension if empty). caseSensitive controls
// whether Key case-folds paths, matching the host file system.
func NewConfigCache(fs host.FileSystem, extension string, caseSensitive bool) *ConfigCache {
	if extension == "" {
		extension = DefaultConfigExtension
	}
	return &ConfigCache{
		fs:            fs,
		extension:     extension,
		caseSensitive: caseSensitive,
		resolved:      make(map[string]types.ResolvedName),
		entries:       make(map[types.CanonicalKey]*cacheEntry),
	}
}

// Resolve turns a project reference's path (as written in another
// project's "references" array, or a CLI target) into the config
// file it names. A reference ending in the configured extension, or
// whose file name is the extension's basename (e.g. "projconf.json"),
// is used as-is; otherwise it is treated as a project directory and
// that basename is appended. The result is cleaned but not made
// absolute: a relative reference stays relative.
func (c *ConfigCache) Resolve(name string) types.ResolvedName {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resolved[name]; ok {
		return r
	}

	clean := filepath.Clean(name)
	configName := strings.TrimPrefix(c.extension, ".")
	var resolved string
	if strings.HasSuffix(clean, c.extension) || filepath.Base(clean) == configName {
		resolved = clean
	} else {
		// A bare project directory's config file takes the extension's
		// own basename, e.g. ".projconf.json" under "packages/core"
		// resolves to "packages/core/projconf.json".
		resolved = filepath.Join(clean, configName)
	}
	r := types.ResolvedName(resolved)
	c.resolved[name] = r
	return r
}

// Key canonicalizes a resolved path into the cache key the rest of the
// engine uses to identify a project, case-folding when the host file
// system is not case-sensitive.
func (c *ConfigCache) Key(resolved types.ResolvedName) types.CanonicalKey {
	clean := filepath.Clean(string(resolved))
	if !c.caseSensitive {
		clean = strings.ToLower(clean)
	}
	return types.CanonicalKey(clean)
}

// Parse returns the parsed config for key, populating the cache on
// first access. A config file that fails to parse yields a nil
// *types.ParsedConfig and a non-nil diagnostic; callers must treat
// that project as unbuildable rather than retrying the parse.
func (c *ConfigCache) Parse(key types.CanonicalKey) (*types.ParsedConfig, *errors.Diagnostic) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.config, e.diagnostic
	}
	c.mu.Unlock()

	cfg, diag := c.parseUncached(string(key), make(map[string]bool))

	c.mu.Lock()
	c.entries[key] = &cacheEntry{config: cfg, diagnostic: diag}
	c.mu.Unlock()
	return cfg, diag
}

// Invalidate evicts a single project's cached config; the engine calls
// it when a project is re-processed under a Full reload.
func (c *ConfigCache) Invalidate(key types.CanonicalKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll evicts every cached config and resolved-name mapping at
// once. The engine's Full reload does not call it; it evicts one
// project at a time with Invalidate.
func (c *ConfigCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[types.CanonicalKey]*cacheEntry)
	c.resolved = make(map[string]types.ResolvedName)
}

// parseUncached reads and parses a single config file, resolving
// "extends" inheritance. visiting guards against an extends cycle,
// which is reported as a single diagnostic rather than an infinite
// recursion.
func (c *ConfigCache) parseUncached(path string, visiting map[string]bool) (*types.ParsedConfig, *errors.Diagnostic) {
	if visiting[path] {
		return nil, &errors.Diagnostic{
			Stage:    errors.StageConfigFile,
			Severity: errors.SeverityError,
			File:     path,
			Message:  fmt.Sprintf("circularity detected while resolving configuration: %s", path),
		}
	}
	visiting[path] = true

	text, ok, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, &errors.Diagnostic{
			Stage: errors.StageConfigFile, Severity: errors.SeverityError,
			File: path, Message: fmt.Sprintf("cannot read configuration file: %v", err),
		}
	}
	if !ok {
		return nil, &errors.Diagnostic{
			Stage: errors.StageConfigFile, Severity: errors.SeverityError,
			File: path, Message: "configuration file does not exist",
		}
	}

	root, err := ajson.Unmarshal([]byte(text))
	if err != nil {
		line, col := locatePosition(text, 0)
		return nil, &errors.Diagnostic{
			Stage: errors.StageConfigFile, Severity: errors.SeverityError,
			File: path, Line: line, Column: col,
			Message: fmt.Sprintf("cannot parse configuration file: %v", err),
		}
	}
	if !root.IsObject() {
		return nil, &errors.Diagnostic{
			Stage: errors.StageConfigFile, Severity: errors.SeverityError,
			File: path, Message: "configuration file must contain a JSON object",
		}
	}

	raw, err := root.Unpack()
	if err != nil {
		return nil, &errors.Diagnostic{
			Stage: errors.StageConfigFile, Severity: errors.SeverityError,
			File: path, Message: fmt.Sprintf("cannot unpack configuration file: %v", err),
		}
	}
	obj, _ := raw.(map[string]interface{})

	cfg := &types.ParsedConfig{
		ConfigFileName: types.ResolvedName(path),
		Raw:            obj,
	}

	if extendsNode, err := root.GetKey("extends"); err == nil {
		extendsPath, err := extendsNode.GetString()
		if err == nil && extendsPath != "" {
			resolvedExtends := extendsPath
			if !filepath.IsAbs(extendsPath) {
				resolvedExtends = filepath.Join(filepath.Dir(path), extendsPath)
			}
			name := types.ResolvedName(resolvedExtends)
			cfg.Extends = &name

			baseCfg, diag := c.parseUncached(resolvedExtends, visiting)
			if diag != nil {
				return nil, diag
			}
			cfg.Options = baseCfg.Options
		}
	}

	if optsNode, err := root.GetKey("compilerOptions"); err == nil {
		opts, diag := parseCompilerOptions(path, optsNode, cfg.Options)
		if diag != nil {
			return nil, diag
		}
		cfg.Options = opts
	}

	if refsNode, err := root.GetKey("references"); err == nil && refsNode.IsArray() {
		refs, diag := parseReferences(path, refsNode)
		if diag != nil {
			return nil, diag
		}
		cfg.References = refs
	}

	if filesNode, err := root.GetKey("files"); err == nil && filesNode.IsArray() {
		for _, f := range filesNode.MustArray() {
			if s, err := f.GetString(); err == nil {
				cfg.FileNames = append(cfg.FileNames, filepath.Join(filepath.Dir(path), s))
			}
		}
	}

	if inclNode, err := root.GetKey("include"); err == nil && inclNode.IsArray() {
		for _, pattern := range inclNode.MustArray() {
			s, err := pattern.GetString()
			if err != nil {
				continue
			}
			recursive := strings.Contains(s, "**")
			cfg.WildcardDirectories = append(cfg.WildcardDirectories, types.WildcardDirectory{
				Path:      filepath.Join(filepath.Dir(path), wildcardBase(s)),
				Recursive: recursive,
			})
		}
	}

	return cfg, nil
}

// wildcardBase strips the glob suffix from an include pattern down to
// the directory it roots at, e.g. "src/**/*.ts" -> "src".
func wildcardBase(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[")
	if idx < 0 {
		return pattern
	}
	base := pattern[:idx]
	return strings.TrimSuffix(base, "/")
}

func parseCompilerOptions(path string, node *ajson.Node, base types.CompilerOptions) (types.CompilerOptions, *errors.Diagnostic) {
	raw, err := node.Unpack()
	if err != nil {
		return types.CompilerOptions{}, &errors.Diagnostic{
			Stage: errors.StageOptions, Severity: errors.SeverityError,
			File: path, Message: fmt.Sprintf("cannot parse compilerOptions: %v", err),
		}
	}
	obj, _ := raw.(map[string]interface{})

	merged := make(map[string]interface{}, len(base.Raw)+len(obj))
	for k, v := range base.Raw {
		merged[k] = v
	}
	for k, v := range obj {
		merged[k] = v
	}

	opts := types.CompilerOptions{Raw: merged}
	if s, ok := merged["outFile"].(string); ok {
		opts.OutFile = filepath.Join(filepath.Dir(path), s)
	}
	if s, ok := merged["outDir"].(string); ok {
		opts.OutDir = filepath.Join(filepath.Dir(path), s)
	}
	if s, ok := merged["declarationDir"].(string); ok {
		opts.DeclarationDir = filepath.Join(filepath.Dir(path), s)
	}
	if b, ok := merged["composite"].(bool); ok {
		opts.Composite = b
	}
	if b, ok := merged["incremental"].(bool); ok {
		opts.Incremental = b
	}
	if s, ok := merged["tsBuildInfoFile"].(string); ok {
		opts.TsBuildInfoFile = filepath.Join(filepath.Dir(path), s)
	}
	if b, ok := merged["declaration"].(bool); ok {
		opts.EmitDeclaration = b
	}
	if opts.Composite {
		opts.EmitDeclaration = true
	}
	return opts, nil
}

func parseReferences(path string, node *ajson.Node) ([]types.Reference, *errors.Diagnostic) {
	var refs []types.Reference
	for _, entry := range node.MustArray() {
		pathNode, err := entry.GetKey("path")
		if err != nil {
			return nil, &errors.Diagnostic{
				Stage: errors.StageConfigFile, Severity: errors.SeverityError,
				File: path, Message: "reference is missing required \"path\" property",
			}
		}
		refPath, err := pathNode.GetString()
		if err != nil {
			return nil, &errors.Diagnostic{
				Stage: errors.StageConfigFile, Severity: errors.SeverityError,
				File: path, Message: "reference \"path\" must be a string",
			}
		}
		ref := types.Reference{Path: filepath.Join(filepath.Dir(path), refPath)}
		if prependNode, err := entry.GetKey("prepend"); err == nil {
			if b, err := prependNode.GetBool(); err == nil {
				ref.Prepend = b
			}
		}
		if circularNode, err := entry.GetKey("circular"); err == nil {
			if b, err := circularNode.GetBool(); err == nil {
				ref.Circular = b
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// locatePosition computes a 1-based line and column for byte offset
// off within text, for diagnostics raised before any node-level
// position is available (e.g. a top-level parse failure).
func locatePosition(text string, off int) (line, col int) {
	line, col = 1, 1
	for i, r := range text {
		if i >= off {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
