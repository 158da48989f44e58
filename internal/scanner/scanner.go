// Package scanner expands a project's wildcard directories (its
// "include" globs) into concrete input file paths: a
// skip-known-noise-directories plus suffix-match walk, with no parsing
// or worker pool since wildcard expansion only needs a file list, not
// file metadata.
package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/types"
	"github.com/conneroisu/projtool/internal/validation"
)

// skipDirs names directories that never contain project inputs.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	"node_modules": true,
	".next":        true,
	"dist":         true,
	"build":        true,
	"vendor":       true,
	".vscode":      true,
	".idea":        true,
	"__pycache__":  true,
}

// Extensions lists the file suffixes that count as project inputs.
var Extensions = []string{".ts", ".tsx", ".d.ts"}

// Expander walks wildcard directories to produce the concrete input
// file lists that feed the Up-to-Date Evaluator's staleness check: a
// file added under a wildcard directory after the last build makes the
// project out of date.
type Expander struct {
	fs host.FileSystem
}

// New creates an Expander backed by fs.
func New(fs host.FileSystem) *Expander {
	return &Expander{fs: fs}
}

// Expand returns every input file reachable from dirs, honoring each
// directory's Recursive flag, sorted for deterministic comparison.
func (e *Expander) Expand(dirs []types.WildcardDirectory) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		found, err := e.expandOne(dir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	sort.Strings(files)
	return dedupe(files), nil
}

func (e *Expander) expandOne(dir types.WildcardDirectory) ([]string, error) {
	if err := validation.ValidatePath(dir.Path); err != nil {
		return nil, fmt.Errorf("wildcard directory %q: %w", dir.Path, err)
	}
	if !e.fs.DirectoryExists(dir.Path) {
		return nil, nil
	}

	var files []string
	var walk func(path string) error
	walk = func(path string) error {
		entries, err := e.fs.ReadDir(path)
		if err != nil {
			return fmt.Errorf("reading directory %s: %w", path, err)
		}
		for _, entry := range entries {
			full := filepath.Join(path, entry.Name())
			if entry.IsDir() {
				if skipDirs[entry.Name()] {
					continue
				}
				if dir.Recursive {
					if err := walk(full); err != nil {
						return err
					}
				}
				continue
			}
			if hasInputExtension(entry.Name()) {
				if err := validation.ValidatePath(full); err != nil {
					continue // skip invalid paths silently
				}
				files = append(files, full)
			}
		}
		return nil
	}

	if err := walk(dir.Path); err != nil {
		return nil, err
	}
	return files, nil
}

func hasInputExtension(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func dedupe(files []string) []string {
	out := files[:0]
	var last string
	for i, f := range files {
		if i == 0 || f != last {
			out = append(out, f)
			last = f
		}
	}
	return out
}
