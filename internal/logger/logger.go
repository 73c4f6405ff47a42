package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// ParseLevel maps a configured level name to a LogLevel. Unknown names
// fall back to InfoLevel; config validation rejects them earlier.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(name) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init initializes the global logger
func Init(level LogLevel, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger()
	SetLogLevel(level)
}

// InitWriter points the global logger at w without console formatting.
// Tests use it to capture structured output.
func InitWriter(w io.Writer, level LogLevel) {
	log = zerolog.New(w).With().Timestamp().Logger()
	SetLogLevel(level)
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(log.Error(), err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return withCode(log.Fatal(), err)
}

func withCode(e *zerolog.Event, err errors.Error) *LogEvent {
	return &LogEvent{e.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// componentLogger tags every event with a component name. It reads the
// package logger on each call so Init after construction still applies.
type componentLogger struct {
	component string
	nop       bool
}

// New returns a Logger backed by the global logger.
func New() Logger {
	return &componentLogger{}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &componentLogger{nop: true}
}

func (l *componentLogger) base() zerolog.Logger {
	if l.nop {
		return zerolog.Nop()
	}
	if l.component == "" {
		return log
	}
	return log.With().Str("component", l.component).Logger()
}

func (l *componentLogger) Debug() *LogEvent {
	b := l.base()
	return &LogEvent{b.Debug()}
}

func (l *componentLogger) Info() *LogEvent {
	b := l.base()
	return &LogEvent{b.Info()}
}

func (l *componentLogger) Warn() *LogEvent {
	b := l.base()
	return &LogEvent{b.Warn()}
}

func (l *componentLogger) Error() *LogEvent {
	b := l.base()
	return &LogEvent{b.Error()}
}

func (l *componentLogger) ErrorWithCode(err errors.Error) *LogEvent {
	b := l.base()
	return withCode(b.Error(), err)
}

func (l *componentLogger) With(component string) Logger {
	return &componentLogger{component: component, nop: l.nop}
}
