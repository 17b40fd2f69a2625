// Package logging provides a small leveled logger on top of the standard
// library log package. Output goes wherever log is configured (stderr for the
// MCP server, since stdout carries the protocol).
package logging

import (
	"log"
	"strings"
)

// Level represents logging verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// ParseLevel maps "error", "warn", "info" and "debug" (any case) to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

// Logger provides leveled logging. A nil *Logger discards everything.
type Logger struct {
	level  Level
	prefix string
	out    *log.Logger
}

// New creates a logger writing through the standard logger.
func New(level Level) *Logger {
	return &Logger{level: level}
}

// NewWith creates a logger writing to out.
func NewWith(level Level, out *log.Logger) *Logger {
	return &Logger{level: level, out: out}
}

// Named returns a copy of l that prefixes messages with [name].
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	c := *l
	c.prefix = "[" + name + "] "
	return &c
}

// Level returns the configured level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelError
	}
	return l.level
}

func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l == nil || level > l.level {
		return
	}
	msg := "[" + level.String() + "] " + l.prefix + format
	if l.out != nil {
		l.out.Printf(msg, args...)
		return
	}
	log.Printf(msg, args...)
}
