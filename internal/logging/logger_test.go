package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "password field", input: "user password: secret123", expected: "[REDACTED]"},
		{name: "token field", input: "auth token abc123", expected: "[REDACTED]"},
		{name: "normal text", input: "normal log message", expected: "normal log message"},
		{name: "long text truncation", input: string(make([]byte, 1500)), expected: string(make([]byte, 1000)) + "...[TRUNCATED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeForLog(tt.input))
		})
	}
}

func TestNewFileLogger(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		fileLogger, err := NewFileLogger(DefaultConfig(), tmpDir)
		require.NoError(t, err)
		assert.NotNil(t, fileLogger)
		assert.NoError(t, fileLogger.Close())
	})

	t.Run("invalid directory with path traversal", func(t *testing.T) {
		_, err := NewFileLogger(DefaultConfig(), "../../../etc")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "path traversal")
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := NewFileLogger(DefaultConfig(), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})
}

func TestProjLogger_WithAndWithComponent(t *testing.T) {
	base := NewLogger(DefaultConfig())
	scoped := base.WithComponent("graph").With("project", "a")

	// Exercised through mockLogger-free path: just confirm no panics and
	// that chaining returns a usable Logger.
	scoped.Info(context.Background(), "building project order")
}

func TestMultiLogger_FansOutToAllLoggers(t *testing.T) {
	var aCalls, bCalls int
	a := &countingLogger{onInfo: func() { aCalls++ }}
	b := &countingLogger{onInfo: func() { bCalls++ }}

	multi := NewMultiLogger(a, b)
	multi.Info(context.Background(), "hello")

	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 1, bCalls)
}

func TestPerfLogger_EndRecordsDuration(t *testing.T) {
	logger := NewTestLogger().(*ProjLogger)
	perf := logger.StartOperation("evaluate")
	perf.End(context.Background())
	perf.EndWithError(context.Background(), assert.AnError)
}

type countingLogger struct {
	onInfo func()
}

func (c *countingLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {}
func (c *countingLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	if c.onInfo != nil {
		c.onInfo()
	}
}
func (c *countingLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{})  {}
func (c *countingLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {}
func (c *countingLogger) Fatal(ctx context.Context, err error, msg string, fields ...interface{}) {}
func (c *countingLogger) With(fields ...interface{}) Logger                                       { return c }
func (c *countingLogger) WithComponent(component string) Logger                                   { return c }
