//go:build property
// +build property

package engine

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/projtool/internal/types"
)

// TestReloadLevelProperties checks that a project's queued reload
// level only ever rises, never falls, no matter what order a sequence
// of markPending calls arrives in.
func TestReloadLevelProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("pending reload level is monotonically non-decreasing", prop.ForAll(
		func(levels []int) bool {
			s := &State{pendingBuild: make(map[types.CanonicalKey]ReloadLevel)}
			const key = types.CanonicalKey("project")

			maxSeen := ReloadNone
			for _, raw := range levels {
				level := ReloadLevel(raw)
				if level > maxSeen {
					maxSeen = level
				}
				s.markPending(key, level)

				cur, ok := s.Pending(key)
				if !ok {
					return false
				}
				if cur != maxSeen {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(20, gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}
