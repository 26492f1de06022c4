// Package log builds the slog.Logger shared by every firehose command.
//
// Without a log file, records below error go to stdout and errors go to
// stderr, so generator output can be piped while failures stay visible.
// With a log file, the console copy goes to stderr only.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is below Debug and logs every file write.
const LevelTrace slog.Level = -8

var levels = map[string]slog.Level{
	"trace": LevelTrace,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"":      slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToLower(s)]; ok {
		return l
	}
	return slog.LevelInfo
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// levelRange only passes records in [min, max).
type levelRange struct {
	min, max slog.Level
	h        slog.Handler
}

func (r levelRange) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= r.min && level < r.max && r.h.Enabled(ctx, level)
}

func (r levelRange) Handle(ctx context.Context, rec slog.Record) error {
	if rec.Level < r.min || rec.Level >= r.max {
		return nil
	}
	return r.h.Handle(ctx, rec)
}

func (r levelRange) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelRange{min: r.min, max: r.max, h: r.h.WithAttrs(attrs)}
}

func (r levelRange) WithGroup(name string) slog.Handler {
	return levelRange{min: r.min, max: r.max, h: r.h.WithGroup(name)}
}

// New builds a logger writing to out and errOut (errors only) at level.
func New(level slog.Level, out, errOut io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: renameTrace}
	return slog.New(fanout{
		levelRange{min: LevelTrace, max: slog.LevelError, h: slog.NewTextHandler(out, opts)},
		levelRange{min: slog.LevelError, max: slog.LevelError + 100, h: slog.NewTextHandler(errOut, opts)},
	})
}

// SetupLogger builds the console logger and, when logFile is set, a file copy.
// The returned closers must be closed by the caller.
func SetupLogger(logLevel, logFile string) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(logLevel)
	if logFile == "" {
		return New(level, os.Stdout, os.Stderr), nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: renameTrace}
	logger := slog.New(fanout{
		slog.NewTextHandler(os.Stderr, opts),
		slog.NewTextHandler(f, opts),
	})
	return logger, []io.Closer{f}, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func renameTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
