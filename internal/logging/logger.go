// Package logging provides structured, leveled logging for the control
// core, backed by zerolog. The RT tick thread never calls into this
// package; it is used by the non-RT compiler, blackbox, health, and
// watchdog consumers (§5).
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel mirrors zerolog's levels under the teacher's naming.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logging configuration.
type Config struct {
	Level   LogLevel
	Format  string // "json" (default) or "text" (console writer)
	Output  io.Writer
	Sync    bool // retained for call-site compatibility; zerolog writes are synchronous
	NoColor bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "json",
		Output: os.Stderr,
	}
}

// Logger wraps a zerolog.Logger with the call shape existing code expects
// (Printf/Debugf) plus structured context builders (WithDevice/WithQueue).
type Logger struct {
	zl zerolog.Logger
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// NewLogger creates a new logger from config.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, NoColor: config.NoColor, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(out).Level(config.Level.zerolog()).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Default returns the process default logger, creating it if necessary.
func Default() *Logger {
	defaultMu.RLock()
	if defaultLogger != nil {
		defer defaultMu.RUnlock()
		return defaultLogger
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the process default logger.
func SetDefault(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// WithDevice returns a child logger annotated with device_id.
func (l *Logger) WithDevice(deviceID uint32) *Logger {
	return &Logger{zl: l.zl.With().Uint32("device_id", deviceID).Logger()}
}

// WithQueue returns a child logger annotated with queue_id, the RT tick
// or HID RX thread identifier for a device (§5).
func (l *Logger) WithQueue(queueID int) *Logger {
	return &Logger{zl: l.zl.With().Int("queue_id", queueID).Logger()}
}

// WithRequest returns a child logger annotated with a tick sequence number
// and an operation name (e.g. "COMMIT", "SWAP", "FAULT").
func (l *Logger) WithRequest(tag int, op string) *Logger {
	return &Logger{zl: l.zl.With().Int("tag", tag).Str("op", op).Logger()}
}

// WithFault returns a child logger annotated with a fault kind.
func (l *Logger) WithFault(kind string) *Logger {
	return &Logger{zl: l.zl.With().Str("fault_kind", kind).Logger()}
}

// WithError returns a child logger annotated with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

func withArgs(e *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	return e
}

func (l *Logger) Debug(msg string, args ...any) { withArgs(l.zl.Debug(), args).Msg(msg) }
func (l *Logger) Info(msg string, args ...any)  { withArgs(l.zl.Info(), args).Msg(msg) }
func (l *Logger) Warn(msg string, args ...any)  { withArgs(l.zl.Warn(), args).Msg(msg) }
func (l *Logger) Error(msg string, args ...any) { withArgs(l.zl.Error(), args).Msg(msg) }

// Printf-style logging, kept for call sites using internal/interfaces.Logger.
func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// Printf satisfies interfaces.Logger.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// Global convenience functions operating on the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
