package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/projtool/internal/types"
)

func TestRegistry_RegisterEmitsAddedThenUpdated(t *testing.T) {
	r := New()
	events := r.Watch()
	defer r.Unwatch(events)

	r.Register(&ProjectInfo{Key: "core"})
	r.Register(&ProjectInfo{Key: "core", HasErrors: true})

	select {
	case e := <-events:
		assert.Equal(t, types.EventTypeAdded, e.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for added event")
	}
	select {
	case e := <-events:
		assert.Equal(t, types.EventTypeUpdated, e.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for updated event")
	}

	info, ok := r.Get("core")
	require.True(t, ok)
	assert.True(t, info.HasErrors)
}

func TestRegistry_RemoveEmitsRemovedOnlyIfPresent(t *testing.T) {
	r := New()
	events := r.Watch()
	defer r.Unwatch(events)

	r.Remove("ghost")
	r.Register(&ProjectInfo{Key: "core"})
	<-events // drain Added

	r.Remove("core")
	select {
	case e := <-events:
		assert.Equal(t, types.EventTypeRemoved, e.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for removed event")
	}

	_, ok := r.Get("core")
	assert.False(t, ok)
}

func TestRegistry_AllAndCount(t *testing.T) {
	r := New()
	r.Register(&ProjectInfo{Key: "a"})
	r.Register(&ProjectInfo{Key: "b"})

	assert.Equal(t, 2, r.Count())
	assert.Len(t, r.All(), 2)
}

func TestRegistry_UnwatchStopsDelivery(t *testing.T) {
	r := New()
	events := r.Watch()
	r.Unwatch(events)

	r.Register(&ProjectInfo{Key: "core"})

	_, ok := <-events
	assert.False(t, ok, "channel should be closed after Unwatch")
}
