// Package logger provides component-tagged structured logging.
//
// Every entry carries a component name ("directory", "alarm", ...) and an
// optional field map. Output goes to stderr as text and, when a log file is
// configured, to that file as JSON lines.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var (
	mu       sync.RWMutex
	level    = new(slog.LevelVar)
	handlers = []slog.Handler{newTextHandler(os.Stderr)}
	logFile  *os.File
)

func newTextHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

func toSlog(l LogLevel) slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel sets the minimum level written by all outputs.
func SetLevel(l LogLevel) {
	level.Set(toSlog(l))
}

// GetLevel returns the current minimum level.
func GetLevel() LogLevel {
	switch level.Level() {
	case slog.LevelDebug:
		return DEBUG
	case slog.LevelWarn:
		return WARN
	case slog.LevelError:
		return ERROR
	default:
		return INFO
	}
}

// SetOutput replaces the console output. Mostly useful in tests and for the
// interactive chat command, which routes logs through the readline writer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	handlers[0] = newTextHandler(w)
}

// EnableFileLogging additionally writes JSON entries to path.
func EnableFileLogging(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		handlers = handlers[:1]
	}
	logFile = f
	handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return nil
}

// DisableFileLogging closes the log file, if any.
func DisableFileLogging() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		handlers = handlers[:1]
	}
}

func logMessage(l LogLevel, component, message string, fields map[string]any) {
	lvl := toSlog(l)
	ctx := context.Background()

	attrs := make([]slog.Attr, 0, len(fields)+1)
	if component != "" {
		attrs = append(attrs, slog.String("component", component))
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	mu.RLock()
	defer mu.RUnlock()
	for _, h := range handlers {
		if !h.Enabled(ctx, lvl) {
			continue
		}
		logger := slog.New(h)
		logger.LogAttrs(ctx, lvl, message, attrs...)
	}
}

func Debug(message string) { logMessage(DEBUG, "", message, nil) }
func Info(message string)  { logMessage(INFO, "", message, nil) }
func Warn(message string)  { logMessage(WARN, "", message, nil) }
func Error(message string) { logMessage(ERROR, "", message, nil) }

func DebugC(component, message string) { logMessage(DEBUG, component, message, nil) }
func InfoC(component, message string)  { logMessage(INFO, component, message, nil) }
func WarnC(component, message string)  { logMessage(WARN, component, message, nil) }
func ErrorC(component, message string) { logMessage(ERROR, component, message, nil) }

func DebugCF(component, message string, fields map[string]any) {
	logMessage(DEBUG, component, message, fields)
}

func InfoCF(component, message string, fields map[string]any) {
	logMessage(INFO, component, message, fields)
}

func WarnCF(component, message string, fields map[string]any) {
	logMessage(WARN, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]any) {
	logMessage(ERROR, component, message, fields)
}
