package log

import "go.uber.org/zap"

// Log is the leveled logging interface used across the engine.
// Fields are zap fields; the wrapper only owns level handling and the
// process-wide singleton.
type Log interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	With(fields ...zap.Field) Log
	SetLevel(level Level)
}

// Level is the minimum severity a logger emits.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)
