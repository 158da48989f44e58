package host

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MemFileSystem is an in-memory FileSystem used by engine tests to
// control file contents and modification times deterministically,
// without touching disk.
type MemFileSystem struct {
	files map[string]*memFile
	dirs  map[string]bool
}

type memFile struct {
	contents string
	modTime  time.Time
}

// NewMemFileSystem creates an empty in-memory file system.
func NewMemFileSystem() *MemFileSystem {
	return &MemFileSystem{files: make(map[string]*memFile), dirs: map[string]bool{"/": true}}
}

func clean(path string) string { return filepath.Clean(path) }

// markDirs registers dir and every ancestor up to the root as existing
// directories, so a deeply nested file makes each intermediate
// directory visible to ReadDir, not just its immediate parent.
func (m *MemFileSystem) markDirs(dir string) {
	for {
		dir = clean(dir)
		if m.dirs[dir] {
			return
		}
		m.dirs[dir] = true
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// WriteFileAt seeds a file directly with an explicit modification
// time, for test setup convenience.
func (m *MemFileSystem) WriteFileAt(path string, contents string, modTime time.Time) {
	path = clean(path)
	m.files[path] = &memFile{contents: contents, modTime: modTime}
	m.markDirs(filepath.Dir(path))
}

func (m *MemFileSystem) ReadFile(path string) (string, bool, error) {
	f, ok := m.files[clean(path)]
	if !ok {
		return "", false, nil
	}
	return f.contents, true, nil
}

func (m *MemFileSystem) FileExists(path string) bool {
	_, ok := m.files[clean(path)]
	return ok
}

func (m *MemFileSystem) WriteFile(path string, text string, writeBOM bool) error {
	path = clean(path)
	content := text
	if writeBOM {
		content = "\xef\xbb\xbf" + content
	}
	m.files[path] = &memFile{contents: content, modTime: time.Now()}
	m.markDirs(filepath.Dir(path))
	return nil
}

func (m *MemFileSystem) DeleteFile(path string) error {
	delete(m.files, clean(path))
	return nil
}

func (m *MemFileSystem) DirectoryExists(path string) bool {
	return m.dirs[clean(path)]
}

func (m *MemFileSystem) CreateDirectory(path string) error {
	m.markDirs(path)
	return nil
}

func (m *MemFileSystem) GetModifiedTime(path string) (time.Time, bool) {
	f, ok := m.files[clean(path)]
	if !ok {
		return MissingFileModifiedTime, false
	}
	return f.modTime, true
}

func (m *MemFileSystem) SetModifiedTime(path string, t time.Time) error {
	f, ok := m.files[clean(path)]
	if !ok {
		return os.ErrNotExist
	}
	f.modTime = t
	return nil
}

func (m *MemFileSystem) Glob(pattern string) ([]string, error) {
	var out []string
	for path := range m.files {
		if ok, _ := filepath.Match(pattern, path); ok {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadDir lists the direct children of path that exist as files or
// directories in this MemFileSystem. It returns entries in the
// minimal shape the engine's wildcard expansion needs; it is not a
// general os.DirEntry implementation.
func (m *MemFileSystem) ReadDir(path string) ([]os.DirEntry, error) {
	path = clean(path)
	seen := make(map[string]bool)
	var names []string
	for file := range m.files {
		if filepath.Dir(file) == path {
			name := filepath.Base(file)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	for dir := range m.dirs {
		if filepath.Dir(dir) == path && dir != path {
			name := filepath.Base(dir)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	entries := make([]os.DirEntry, 0, len(names))
	for _, name := range names {
		full := filepath.Join(path, name)
		entries = append(entries, memDirEntry{name: name, isDir: m.dirs[full] && !m.files[full].exists()})
	}
	return entries, nil
}

func (f *memFile) exists() bool { return f != nil }

type memDirEntry struct {
	name  string
	isDir bool
}

func (e memDirEntry) Name() string              { return e.name }
func (e memDirEntry) IsDir() bool                { return e.isDir }
func (e memDirEntry) Type() os.FileMode          { return 0 }
func (e memDirEntry) Info() (os.FileInfo, error) { return nil, os.ErrNotExist }

var _ FileSystem = (*MemFileSystem)(nil)

// HasPrefixDir reports whether child lies under dir (used by tests
// asserting wildcard-directory membership without importing the
// scanner package).
func HasPrefixDir(dir, child string) bool {
	dir = filepath.Clean(dir)
	child = filepath.Clean(child)
	return child == dir || strings.HasPrefix(child, dir+string(filepath.Separator))
}
