package logger

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Level controls which messages are emitted.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// SetLevel sets the global log level.
func SetLevel(l Level) {
	currentLevel.Store(int32(l))
}

func enabled(l Level) bool {
	return l >= Level(currentLevel.Load())
}

func Debug(format string, args ...any) {
	if enabled(LevelDebug) {
		log.Printf(format, args...)
	}
}

func Info(format string, args ...any) {
	if enabled(LevelInfo) {
		log.Printf(format, args...)
	}
}

func Warn(format string, args ...any) {
	if enabled(LevelWarn) {
		log.Printf(format, args...)
	}
}

func Error(format string, args ...any) {
	if enabled(LevelError) {
		log.Printf(format, args...)
	}
}
