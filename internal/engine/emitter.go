package engine

import (
	"time"

	"github.com/conneroisu/projtool/internal/build"
	"github.com/conneroisu/projtool/internal/host"
)

// collectingEmitter implements host.Emitter for the Build Driver's
// runBuild step. It performs the declaration byte-equality comparison:
// a declaration output whose new text is identical to what is already
// on disk is never written, preserving its modification time so
// downstream projects see no change; any other declaration write sets
// declarationChanged, which forces newestDeclContentChangedTime to
// host.MaximumDate for the caller.
type collectingEmitter struct {
	fs     host.FileSystem
	hasher *build.HashProvider

	emitted            map[string]bool
	hashes             map[string]string
	declarationChanged bool
}

func newCollectingEmitter(fs host.FileSystem, hasher *build.HashProvider) *collectingEmitter {
	return &collectingEmitter{fs: fs, hasher: hasher, emitted: make(map[string]bool), hashes: make(map[string]string)}
}

func (e *collectingEmitter) EmitFile(name, contents string, isDeclaration bool) error {
	if isDeclaration {
		existing, ok, err := e.fs.ReadFile(name)
		if err != nil {
			return err
		}
		if ok && existing == contents {
			e.emitted[name] = true
			e.hashes[name] = e.hasher.HashText(contents)
			return nil
		}
		e.declarationChanged = true
	}

	if err := e.fs.WriteFile(name, contents, false); err != nil {
		return err
	}
	e.emitted[name] = true
	if isDeclaration {
		e.hashes[name] = e.hasher.HashText(contents)
	}
	return nil
}

func (e *collectingEmitter) wasEmitted(path string) bool { return e.emitted[path] }

// newestDeclTime returns the newest modification time among emitted
// declaration outputs, or fallback if none were emitted.
func (e *collectingEmitter) newestDeclTime(fallback time.Time) time.Time {
	newest := fallback
	for name := range e.hashes {
		if mt, ok := e.fs.GetModifiedTime(name); ok && mt.After(newest) {
			newest = mt
		}
	}
	return newest
}

var _ host.Emitter = (*collectingEmitter)(nil)
