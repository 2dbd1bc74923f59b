package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger shared by the memo services.
// - scoped: built once at startup and handed to each component
// - Debug/Info/Warn/Error/Fatal variants, level names follow LOG_LEVEL

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// ParseLevel maps a case-insensitive level name to a Level. Unknown input is Info.
func ParseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

type Logger struct {
	sugar *zap.SugaredLogger
	level Level
}

// New returns a Logger writing to stdout at the given level.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter returns a Logger writing console-encoded lines to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	lvl := ParseLevel(level)
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl.zapLevel())
	return &Logger{sugar: zap.New(core).Sugar(), level: lvl}
}

// Nop discards everything. Used by tests and as the default for optional loggers.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: LevelFatal}
}

// With returns a child logger carrying the given key/value pairs on every line.
func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(kv...), level: l.level}
}

func (l *Logger) Debugf(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.sugar.Infof(format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }
func (l *Logger) Fatalf(format string, v ...interface{}) { l.sugar.Fatalf(format, v...) }

// Debug/Info/Warn/Error helpers that accept a single string
func (l *Logger) Debug(v string) { l.Debugf("%s", v) }
func (l *Logger) Info(v string)  { l.Infof("%s", v) }
func (l *Logger) Warn(v string)  { l.Warnf("%s", v) }
func (l *Logger) Error(v string) { l.Errorf("%s", v) }

// LevelString returns the configured level as text.
func (l *Logger) LevelString() string { return l.level.String() }

// Sync flushes buffered output.
func (l *Logger) Sync() error { return l.sugar.Sync() }
