// Package logging provides structured logging for projtool, built on
// log/slog wrapped behind a small interface so call sites never depend
// on the concrete handler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogLevel represents different log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the structured logging interface used throughout the engine,
// the watch orchestrator, and the CLI.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Fatal(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// ProjLogger implements structured logging for projtool.
type ProjLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	fields    map[string]interface{}
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      LogLevel
	Format     string // "json" or "text"
	Output     io.Writer
	TimeFormat string
	AddSource  bool
	Component  string
}

// DefaultConfig returns default logger configuration.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      LevelInfo,
		Format:     "text",
		Output:     os.Stdout,
		TimeFormat: time.RFC3339,
		AddSource:  true,
	}
}

// NewLogger creates a new structured logger.
func NewLogger(config *LoggerConfig) *ProjLogger {
	if config == nil {
		config = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     slog.Level(config.Level - 1), // adjust for slog levels
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &ProjLogger{
		logger: slog.New(handler),
		level:  config.Level,
		fields: make(map[string]interface{}),
	}
}

// Debug logs a debug message.
func (l *ProjLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelDebug {
		return
	}
	l.log(ctx, slog.LevelDebug, nil, msg, fields...)
}

// Info logs an info message.
func (l *ProjLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.log(ctx, slog.LevelInfo, nil, msg, fields...)
}

// Warn logs a warning message.
func (l *ProjLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	if l.level > LevelWarn {
		return
	}
	l.log(ctx, slog.LevelWarn, err, msg, fields...)
}

// Error logs an error message.
func (l *ProjLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	if l.level > LevelError {
		return
	}
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

// Fatal logs a fatal-severity message. It does not call os.Exit; the
// caller decides how to react to a fatal condition.
func (l *ProjLogger) Fatal(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

// With creates a new logger with additional persistent fields.
func (l *ProjLogger) With(fields ...interface{}) Logger {
	newFields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			newFields[key] = fields[i+1]
		}
	}

	return &ProjLogger{logger: l.logger, level: l.level, component: l.component, fields: newFields}
}

// WithComponent creates a new logger scoped to a subsystem name, e.g.
// "graph", "watch", "engine".
func (l *ProjLogger) WithComponent(component string) Logger {
	return &ProjLogger{logger: l.logger, level: l.level, component: component, fields: l.fields}
}

func (l *ProjLogger) log(ctx context.Context, level slog.Level, err error, msg string, fields ...interface{}) {
	if l.logger == nil {
		fmt.Fprintf(os.Stderr, "[ERROR] logger is nil - message: %s\n", msg)
		return
	}

	attrs := make([]slog.Attr, 0, len(l.fields)+len(fields)/2+2)

	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	for k, v := range l.fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok && key != "" {
			value := fields[i+1]
			if str, isString := value.(string); isString {
				value = SanitizeForLog(str)
			}
			attrs = append(attrs, slog.Any(key, value))
		}
	}

	record := slog.NewRecord(time.Now(), level, msg, 0)
	record.AddAttrs(attrs...)

	if handler := l.logger.Handler(); handler != nil {
		if err := handler.Handle(ctx, record); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] failed to write log: %v - original message: %s\n", err, msg)
		}
	}
}

// FileLogger writes log records to a dated file, for a persistent
// record alongside console output.
type FileLogger struct {
	*ProjLogger
	file     *os.File
	filePath string
}

// NewFileLogger creates a file-based logger under logDir.
func NewFileLogger(config *LoggerConfig, logDir string) (*FileLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logDir == "" {
		return nil, fmt.Errorf("log directory cannot be empty")
	}

	cleanLogDir := filepath.Clean(logDir)
	if strings.Contains(cleanLogDir, "..") {
		return nil, fmt.Errorf("invalid log directory path (contains path traversal): %s", logDir)
	}
	if err := os.MkdirAll(cleanLogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", cleanLogDir, err)
	}

	fileName := fmt.Sprintf("projtool-%s.log", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(cleanLogDir, fileName)

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	fileConfig := *config
	fileConfig.Output = file

	return &FileLogger{ProjLogger: NewLogger(&fileConfig), file: file, filePath: filePath}, nil
}

// Close closes the underlying log file.
func (f *FileLogger) Close() error {
	if f.file != nil {
		if err := f.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file %s: %w", f.filePath, err)
		}
		f.file = nil
	}
	return nil
}

// MultiLogger fans out log calls to multiple loggers, e.g. console plus
// file, without the caller needing to know both exist.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to multiple destinations.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Debug(ctx, msg, fields...)
	}
}

func (m *MultiLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Info(ctx, msg, fields...)
	}
}

func (m *MultiLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Warn(ctx, err, msg, fields...)
	}
}

func (m *MultiLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Error(ctx, err, msg, fields...)
	}
}

func (m *MultiLogger) Fatal(ctx context.Context, err error, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Fatal(ctx, err, msg, fields...)
	}
}

func (m *MultiLogger) With(fields ...interface{}) Logger {
	newLoggers := make([]Logger, len(m.loggers))
	for i, logger := range m.loggers {
		newLoggers[i] = logger.With(fields...)
	}
	return &MultiLogger{loggers: newLoggers}
}

func (m *MultiLogger) WithComponent(component string) Logger {
	newLoggers := make([]Logger, len(m.loggers))
	for i, logger := range m.loggers {
		newLoggers[i] = logger.WithComponent(component)
	}
	return &MultiLogger{loggers: newLoggers}
}

// SanitizeForLog redacts values that look like secrets and truncates
// very long strings before they reach a log record.
func SanitizeForLog(data string) string {
	sensitive := []string{"password", "token", "secret", "key", "auth"}
	lower := strings.ToLower(data)
	for _, word := range sensitive {
		if strings.Contains(lower, word) {
			return "[REDACTED]"
		}
	}
	if len(data) > 1000 {
		return data[:1000] + "...[TRUNCATED]"
	}
	return data
}

// PerfLogger tracks the duration of one operation and logs it when the
// operation completes.
type PerfLogger struct {
	Logger
	startTime time.Time
	operation string
}

// StartOperation begins performance tracking for an operation name.
func (l *ProjLogger) StartOperation(operation string) *PerfLogger {
	return &PerfLogger{Logger: l.With("operation", operation), startTime: time.Now(), operation: operation}
}

// End completes performance tracking and logs the duration.
func (p *PerfLogger) End(ctx context.Context) {
	duration := time.Since(p.startTime)
	p.Info(ctx, "operation completed", "duration_ms", duration.Milliseconds())
}

// EndWithError completes performance tracking and logs a failure.
func (p *PerfLogger) EndWithError(ctx context.Context, err error) {
	duration := time.Since(p.startTime)
	p.Error(ctx, err, "operation failed", "duration_ms", duration.Milliseconds())
}

// NewTestLogger creates a logger that discards output, for use in tests
// that need a Logger but don't want test output polluted.
func NewTestLogger() Logger {
	return NewLogger(&LoggerConfig{
		Level:     LevelDebug,
		Format:    "text",
		Output:    io.Discard,
		AddSource: false,
	})
}

