// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent disables every message.
	LevelSilent

	// DefaultLevel is the level of the logger created when none is given.
	DefaultLevel = LevelWarn

	loggerPrefix = "uneet"

	// traceLevel sits below charm's debug level (-4).
	traceLevel = log.Level(-8)
)

// ErrInvalidLevel is the sentinel error wrapped by InvalidLevelError.
var ErrInvalidLevel = errors.New("invalid log level")

type (
	// Logger is the leveled logging facility used by a pass and handed to
	// factories through Shared.
	Logger interface {
		Trace(msg string, keyvals ...any)
		Debug(msg string, keyvals ...any)
		Info(msg string, keyvals ...any)
		Warn(msg string, keyvals ...any)
		Error(msg string, keyvals ...any)
	}

	// Level is a logging threshold.
	Level int

	// InvalidLevelError is returned by ParseLevel for unknown names.
	InvalidLevelError struct {
		Value string
	}

	charmLogger struct {
		l *log.Logger
	}
)

var levelNames = map[Level]string{
	LevelTrace:  "trace",
	LevelDebug:  "debug",
	LevelInfo:   "info",
	LevelWarn:   "warn",
	LevelError:  "error",
	LevelSilent: "silent",
}

// String returns the level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel maps trace, debug, info, warn, error and silent to a Level.
// "warning" and "off" are accepted as aliases.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off":
		return LevelSilent, nil
	default:
		return DefaultLevel, &InvalidLevelError{Value: s}
	}
}

// Error implements the error interface.
func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: trace, debug, info, warn, error, silent)", e.Value)
}

// Unwrap returns ErrInvalidLevel for errors.Is() compatibility.
func (e *InvalidLevelError) Unwrap() error { return ErrInvalidLevel }

// NewLogger returns a Logger writing to w through charmbracelet/log.
func NewLogger(w io.Writer, level Level) Logger {
	if level == LevelSilent {
		w = io.Discard
	}
	l := log.NewWithOptions(w, log.Options{
		Prefix: loggerPrefix,
		Level:  charmLevel(level),
	})
	styles := log.DefaultStyles()
	styles.Levels[traceLevel] = lipgloss.NewStyle().
		SetString("TRAC").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("245"))
	l.SetStyles(styles)
	return &charmLogger{l: l}
}

// FromCharm adapts an existing charmbracelet/log logger.
func FromCharm(l *log.Logger) Logger { return &charmLogger{l: l} }

// Discard returns a Logger that drops every message.
func Discard() Logger { return NewLogger(io.Discard, LevelSilent) }

func charmLevel(level Level) log.Level {
	switch level {
	case LevelTrace:
		return traceLevel
	case LevelDebug:
		return log.DebugLevel
	case LevelInfo:
		return log.InfoLevel
	case LevelError:
		return log.ErrorLevel
	case LevelSilent:
		return log.FatalLevel
	default:
		return log.WarnLevel
	}
}

func (c *charmLogger) Trace(msg string, keyvals ...any) { c.l.Log(traceLevel, msg, keyvals...) }
func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }
