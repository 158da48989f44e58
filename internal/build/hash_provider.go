// Package build wires the external Program Builder the engine drives,
// persists build-info, and compares emitted declaration output for
// byte-equality so downstream projects can be spared a rebuild.
package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/conneroisu/projtool/internal/host"
)

// HashProvider generates content hashes for declaration output: a
// metadata-keyed cache avoiding repeat hashing of files whose path and
// modification time haven't changed (see hashContent for the hash
// algorithm choice). No mmap path for large files: a project's emitted
// .d.ts rarely approaches a size where that would matter, and the
// syscall-specific mmap code would be the only non-portable line in
// this package.
type HashProvider struct {
	cache *hashCache
}

// NewHashProvider creates a HashProvider with its own private cache.
func NewHashProvider() *HashProvider {
	return &HashProvider{cache: newHashCache()}
}

// ContentHash returns a content hash for path's current contents,
// read through fs, using metadata as the cache key so unchanged files
// never need their content re-hashed.
func (hp *HashProvider) ContentHash(fs host.FileSystem, path string) (string, error) {
	modTime, ok := fs.GetModifiedTime(path)
	if !ok {
		return "", fmt.Errorf("cannot hash missing file: %s", path)
	}
	metaKey := fmt.Sprintf("%s:%d", path, modTime.UnixNano())
	if hash, ok := hp.cache.get(metaKey); ok {
		return hash, nil
	}

	text, ok, err := fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s for hashing: %w", path, err)
	}
	if !ok {
		return "", fmt.Errorf("cannot hash missing file: %s", path)
	}

	hash := hashContent(text)
	hp.cache.set(metaKey, hash)
	return hash, nil
}

// HashText hashes in-memory content directly, for the emitter path
// where declaration text is compared before it is ever written to
// disk (avoiding a write-then-read round trip just to hash it).
func (hp *HashProvider) HashText(text string) string {
	return hashContent(text)
}

// hashContent uses SHA-256 for declaration byte-equality rather than a
// fast non-cryptographic hash: a collision here would wrongly tell a
// downstream project its types haven't changed and skip a needed
// rebuild, so the stronger guarantee is worth the extra cost.
func hashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
