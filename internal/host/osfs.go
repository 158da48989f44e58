package host

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conneroisu/projtool/internal/validation"
)

// OSFileSystem is the default FileSystem, backed directly by the local
// disk. ReadFile and WriteFile validate their path first, the same
// guard the watcher applies before handing a path to fsnotify; the
// other operations use the path as given.
type OSFileSystem struct{}

// NewOSFileSystem returns the default disk-backed FileSystem.
func NewOSFileSystem() *OSFileSystem { return &OSFileSystem{} }

func (OSFileSystem) ReadFile(path string) (string, bool, error) {
	if err := validation.ValidatePath(path); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (OSFileSystem) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (OSFileSystem) WriteFile(path string, text string, writeBOM bool) error {
	if err := validation.ValidatePath(path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory for %s: %w", path, err)
	}
	content := text
	if writeBOM {
		content = "\xef\xbb\xbf" + content
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (OSFileSystem) DeleteFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (OSFileSystem) DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OSFileSystem) CreateDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OSFileSystem) GetModifiedTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return MissingFileModifiedTime, false
	}
	return info.ModTime(), true
}

func (OSFileSystem) SetModifiedTime(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}

func (OSFileSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

func (OSFileSystem) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

var _ FileSystem = (*OSFileSystem)(nil)
