package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/projtool/internal/logging"
)

func TestOrchestrator_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	o, err := New(50*time.Millisecond, logging.NewTestLogger())
	require.NoError(t, err)
	defer o.Stop()

	batches := make(chan []ChangeEvent, 10)
	o.AddHandler(func(events []ChangeEvent) { batches <- events })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	require.NoError(t, o.Watch(dir))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("y"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case events := <-batches:
		assert.NotEmpty(t, events)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
	}

	select {
	case extra := <-batches:
		t.Fatalf("expected a single debounced batch, got a second: %v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestOrchestrator_WatchRejectsPathOutsideWorkingDirectory(t *testing.T) {
	o, err := New(50*time.Millisecond, logging.NewTestLogger())
	require.NoError(t, err)
	defer o.Stop()

	assert.Error(t, o.Watch("../../../etc"))
}

func TestOrchestrator_StopIsIdempotent(t *testing.T) {
	o, err := New(50*time.Millisecond, logging.NewTestLogger())
	require.NoError(t, err)

	assert.NoError(t, o.Stop())
	assert.NoError(t, o.Stop())
}
