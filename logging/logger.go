// Package logging is the structured logger every weft component logs
// through: a log/slog logger backed by an async write buffer so a slow
// sink (a piped file, a log shipper) never blocks request handling,
// with optional PII-safe redaction of sensitive field values.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string

	// Format is the output encoding ("json", "text").
	Format string

	// AddSource includes file and line number in log entries.
	AddSource bool

	// RedactPII enables automatic redaction of sensitive field values.
	RedactPII bool

	// BufferSize is the async write buffer's channel depth, in queued
	// writes. Zero selects a default of 10000.
	BufferSize int

	// RedactPatterns contains additional custom redaction patterns,
	// applied alongside the built-in ones.
	RedactPatterns []RedactPattern

	// Writer is the underlying sink. Defaults to os.Stdout.
	Writer io.Writer
}

// Logger wraps a *slog.Logger with PII redaction and an async write
// buffer.
type Logger struct {
	slog     *slog.Logger
	redactor *Redactor
	buffer   *asyncBuffer
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level: %w", err)
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("logging: invalid format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 10000
	}

	var redactor *Redactor
	if cfg.RedactPII {
		redactor = NewRedactor(cfg.RedactPatterns)
	}

	buffer := newAsyncBuffer(writer, bufferSize)
	buffer.start()

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(buffer, opts)
	default:
		handler = slog.NewJSONHandler(buffer, opts)
	}

	return &Logger{slog: slog.New(handler), redactor: redactor, buffer: buffer}, nil
}

func (l *Logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(context.Background(), slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(context.Background(), slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, append(extractContextFields(ctx), args...)...)
}
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, append(extractContextFields(ctx), args...)...)
}
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, append(extractContextFields(ctx), args...)...)
}
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, append(extractContextFields(ctx), args...)...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.slog.Enabled(ctx, level) {
		return
	}
	if l.redactor != nil {
		args = l.redactor.RedactArgs(args...)
	}
	l.slog.Log(ctx, level, msg, args...)
}

// With returns a Logger that always includes the given fields.
func (l *Logger) With(args ...any) *Logger {
	if l.redactor != nil {
		args = l.redactor.RedactArgs(args...)
	}
	return &Logger{slog: l.slog.With(args...), redactor: l.redactor, buffer: l.buffer}
}

// WithContext returns a Logger that includes fields extracted from
// ctx (request ID, API key identity, trace/span IDs).
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// Slog returns the underlying *slog.Logger, for handing to components
// (h2client.Reaper, layer/auth.Layer) built against the standard
// library's logging interface rather than weft's own Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// DroppedCount returns how many writes the async buffer has discarded
// because its channel was full.
func (l *Logger) DroppedCount() int64 {
	return l.buffer.dropped.Load()
}

// Shutdown stops the async writer, flushing any queued writes before
// returning.
func (l *Logger) Shutdown() error {
	l.buffer.stop()
	return nil
}

// asyncBuffer is an io.Writer that hands each write off to a single
// background goroutine, so a slow sink cannot stall the caller. A full
// queue drops the write and counts it in dropped rather than blocking.
type asyncBuffer struct {
	writer  io.Writer
	entries chan []byte
	dropped atomic.Int64
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func newAsyncBuffer(writer io.Writer, size int) *asyncBuffer {
	return &asyncBuffer{
		writer:  writer,
		entries: make(chan []byte, size),
		stopCh:  make(chan struct{}),
	}
}

func (b *asyncBuffer) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)

	select {
	case b.entries <- cp:
	default:
		b.dropped.Add(1)
	}
	return len(p), nil
}

func (b *asyncBuffer) start() {
	b.wg.Add(1)
	go b.run()
}

func (b *asyncBuffer) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			b.drain()
			return
		case entry := <-b.entries:
			b.writer.Write(entry)
		}
	}
}

func (b *asyncBuffer) drain() {
	for {
		select {
		case entry := <-b.entries:
			b.writer.Write(entry)
		default:
			return
		}
	}
}

func (b *asyncBuffer) stop() {
	close(b.stopCh)
	b.wg.Wait()
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

func parseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", s)
	}
}
