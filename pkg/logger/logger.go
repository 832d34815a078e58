// Package logger configures the process-wide slog logger used across
// formpilot: colored text output on a terminal, a filtering handler that
// mutes third-party library noise below debug level, and a couple of
// small helpers for opening a log file and normalizing level strings.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

var defaultLogger *slog.Logger

const formpilotPackagePrefix = "github.com/kadirpekel/formpilot"

// sessionIDKey is the attribute key cmd/formpilot attaches to every log
// line for a run via WithSession. A form-filling session spans many
// engine turns and, with --watch, several form reloads, so the text
// handlers below pull it out of the attr list and print it as a
// bracketed prefix instead of a trailing key=value pair — the one
// attribute worth finding at a glance when several sessions' output is
// interleaved in one log file.
const sessionIDKey = "session_id"

// WithSession returns logger with sessionID attached, so every line it
// (and loggers derived from it) emits carries the same session_id.
func WithSession(l *slog.Logger, sessionID string) *slog.Logger {
	return l.With(sessionIDKey, sessionID)
}

// ParseLevel converts a string log level to slog.Level.
// Valid levels: debug, info, warn, error.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, nil
	}
}

// filteringHandler wraps a slog handler and filters third-party library
// logs; third-party logs are only shown when the level is DEBUG.
type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.minLevel {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug {
		return h.handler.Handle(ctx, record)
	}
	if h.isFormpilotPackage(record.PC) {
		return h.handler.Handle(ctx, record)
	}
	return nil
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

func (h *filteringHandler) isFormpilotPackage(pc uintptr) bool {
	if pc == 0 {
		return false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	fullName := fn.Name()
	file, _ := fn.FileLine(pc)
	return strings.Contains(fullName, formpilotPackagePrefix) || strings.Contains(file, "formpilot/")
}

func getLevelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m"
	case level >= slog.LevelWarn:
		return "\033[33m"
	case level >= slog.LevelInfo:
		return "\033[36m"
	default:
		return "\033[90m"
	}
}

func isTerminal(file *os.File) bool {
	if fileInfo, err := file.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// coloredTextHandler wraps a base handler and adds ANSI colors.
type coloredTextHandler struct {
	handler   slog.Handler
	writer    io.Writer
	useColor  bool
	simple    bool
	sessionID string
}

func (h *coloredTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *coloredTextHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.useColor {
		return h.handler.Handle(ctx, record)
	}

	colorCode := getLevelColor(record.Level)
	resetCode := "\033[0m"

	var buf strings.Builder
	if !h.simple && !record.Time.IsZero() {
		buf.WriteString(record.Time.Format("2006/01/02 15:04:05 "))
	}

	levelStr := record.Level.String()
	if levelStr == "WARNING" {
		levelStr = "WARN"
	}
	buf.WriteString(colorCode)
	buf.WriteString(strings.ToUpper(levelStr))
	buf.WriteString(resetCode)

	if h.sessionID != "" {
		buf.WriteString(" [")
		buf.WriteString(h.sessionID)
		buf.WriteString("]")
	}
	buf.WriteString(" ")
	buf.WriteString(record.Message)

	record.Attrs(func(a slog.Attr) bool {
		buf.WriteString(" ")
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.String())
		return true
	})
	buf.WriteString("\n")

	_, err := h.writer.Write([]byte(buf.String()))
	return err
}

// withSessionAttr scans attrs for sessionIDKey and returns its value
// (falling back to prior) plus the remaining attrs to forward to the
// wrapped handler, so the session id is rendered as a prefix exactly
// once instead of also appearing as a trailing key=value pair.
func withSessionAttr(prior string, attrs []slog.Attr) (string, []slog.Attr) {
	id := prior
	kept := attrs
	for i, a := range attrs {
		if a.Key == sessionIDKey {
			id = a.Value.String()
			kept = make([]slog.Attr, 0, len(attrs)-1)
			kept = append(kept, attrs[:i]...)
			kept = append(kept, attrs[i+1:]...)
			break
		}
	}
	return id, kept
}

func (h *coloredTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sessionID, kept := withSessionAttr(h.sessionID, attrs)
	return &coloredTextHandler{
		handler: h.handler.WithAttrs(kept), writer: h.writer,
		useColor: h.useColor, simple: h.simple, sessionID: sessionID,
	}
}

func (h *coloredTextHandler) WithGroup(name string) slog.Handler {
	return &coloredTextHandler{
		handler: h.handler.WithGroup(name), writer: h.writer,
		useColor: h.useColor, simple: h.simple, sessionID: h.sessionID,
	}
}

// simpleTextHandler formats level + message (+ attrs) for non-terminal output.
type simpleTextHandler struct {
	handler   slog.Handler
	writer    io.Writer
	sessionID string
}

func (h *simpleTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *simpleTextHandler) Handle(ctx context.Context, record slog.Record) error {
	var buf strings.Builder
	levelStr := record.Level.String()
	if levelStr == "WARNING" {
		levelStr = "WARN"
	}
	buf.WriteString(strings.ToUpper(levelStr))
	if h.sessionID != "" {
		buf.WriteString(" [")
		buf.WriteString(h.sessionID)
		buf.WriteString("]")
	}
	buf.WriteString(" ")
	buf.WriteString(record.Message)
	record.Attrs(func(a slog.Attr) bool {
		buf.WriteString(" ")
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.String())
		return true
	})
	buf.WriteString("\n")
	_, err := h.writer.Write([]byte(buf.String()))
	return err
}

func (h *simpleTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sessionID, kept := withSessionAttr(h.sessionID, attrs)
	return &simpleTextHandler{handler: h.handler.WithAttrs(kept), writer: h.writer, sessionID: sessionID}
}

func (h *simpleTextHandler) WithGroup(name string) slog.Handler {
	return &simpleTextHandler{handler: h.handler.WithGroup(name), writer: h.writer, sessionID: h.sessionID}
}

// Init configures the default slog logger. format is "simple" (level +
// message), "verbose" (time + level + message + attrs), or anything else
// to fall back to slog's standard text format. Color is enabled
// automatically when output is a terminal.
func Init(level slog.Level, output *os.File, format string) {
	useColor := isTerminal(output)
	simple := format == "simple" || format == ""
	verbose := format == "verbose"

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if a.Value.String() == "WARNING" {
					return slog.String("level", "WARN")
				}
			}
			return a
		},
	}

	baseHandler := slog.NewTextHandler(output, opts)

	var handler slog.Handler = baseHandler
	if useColor {
		if simple || verbose {
			handler = &coloredTextHandler{handler: baseHandler, writer: output, useColor: true, simple: simple}
		}
	} else if simple {
		handler = &simpleTextHandler{handler: baseHandler, writer: output}
	}

	defaultLogger = slog.New(&filteringHandler{handler: handler, minLevel: level})
	slog.SetDefault(defaultLogger)
}

// OpenLogFile opens or creates a log file at path for append-only writes.
func OpenLogFile(path string) (*os.File, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// GetLogger returns the default slog logger, initializing it with
// INFO/simple defaults if Init was never called.
func GetLogger() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr, "simple")
	}
	return defaultLogger
}
