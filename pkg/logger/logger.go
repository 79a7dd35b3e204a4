// Package logger configures zap for the Alpha Bot binaries.
package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger embeds *zap.Logger so call sites use zap fields directly.
type Logger struct {
	*zap.Logger
}

// New builds a JSON logger at level, writing to outputPaths or to stdout.
// An unknown level falls back to info.
func New(level string, outputPaths ...string) (*Logger, error) {
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    enc,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: zl}, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// WithSession tags entries with the chat room and ticker they concern.
func (l *Logger) WithSession(roomID int64, ticker string) *Logger {
	return l.With(zap.Int64("room_id", roomID), zap.String("ticker", ticker))
}

var global atomic.Pointer[Logger]

// SetGlobal installs l as the process logger, including zap.L().
func SetGlobal(l *Logger) {
	global.Store(l)
	zap.ReplaceGlobals(l.Logger)
}

// Global returns the logger installed by SetGlobal, or a no-op logger.
func Global() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return NewNop()
}
