// Package logger is a thin component-tagged facade over zerolog.
// Call sites pass a component name plus an optional field map; the
// backend decides formatting (console for TTY sessions, JSON otherwise).
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stderr, false)
)

func newLogger(w io.Writer, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Init configures the global logger. Level is one of debug, info, warn,
// error; unknown values fall back to info.
func Init(level string, pretty bool) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(os.Stderr, pretty)
	zerolog.SetGlobalLevel(parseLevel(level))
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, false)
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func event(ev *zerolog.Event, component, msg string, fields map[string]interface{}) {
	ev.Str("component", component)
	if len(fields) > 0 {
		ev.Fields(fields)
	}
	ev.Msg(msg)
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

func DebugC(component, msg string) { event(current().Debug(), component, msg, nil) }
func InfoC(component, msg string)  { event(current().Info(), component, msg, nil) }
func WarnC(component, msg string)  { event(current().Warn(), component, msg, nil) }
func ErrorC(component, msg string) { event(current().Error(), component, msg, nil) }

func DebugCF(component, msg string, fields map[string]interface{}) {
	event(current().Debug(), component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	event(current().Info(), component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	event(current().Warn(), component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	event(current().Error(), component, msg, fields)
}
