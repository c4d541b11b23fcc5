package logger

import (
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fields is the structured payload attached to a log line.
type Fields = map[string]interface{}

// Logger wraps zerolog.Logger with map based field bags and a caller field.
type Logger struct {
	logger zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, console
	Output      io.Writer
	EnableColor bool
}

var globalLogger *Logger

// New builds a logger without touching the global one.
func New(cfg Config) *Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.EnableColor,
		}
	}

	l := zerolog.New(output).Level(parseLogLevel(cfg.Level)).With().Timestamp().Logger()
	return &Logger{logger: l}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// Initialize replaces the global logger.
func Initialize(cfg Config) {
	globalLogger = New(cfg)
	log.Logger = globalLogger.logger
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger instance
func Get() *Logger {
	if globalLogger == nil {
		Initialize(Config{
			Level:       "info",
			Format:      "console",
			EnableColor: true,
		})
	}
	return globalLogger
}

// WithContext returns a logger with additional context fields
func (l *Logger) WithContext(fields Fields) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Fields) {
	if event == nil {
		return
	}
	pc, file, line, _ := runtime.Caller(2)
	event = event.Str("caller", zerolog.CallerMarshalFunc(pc, file, line))
	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.emit(l.logger.Debug(), msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Fields) {
	l.emit(l.logger.Info(), msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.emit(l.logger.Warn(), msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.emit(l.logger.Error().Err(err), msg, fields)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, err error, fields ...Fields) {
	l.emit(l.logger.Fatal().Err(err), msg, fields)
}

// Package-level convenience functions

func Debug(msg string, fields ...Fields) {
	g := Get()
	g.emit(g.logger.Debug(), msg, fields)
}

func Info(msg string, fields ...Fields) {
	g := Get()
	g.emit(g.logger.Info(), msg, fields)
}

func Warn(msg string, fields ...Fields) {
	g := Get()
	g.emit(g.logger.Warn(), msg, fields)
}

func Error(msg string, err error, fields ...Fields) {
	g := Get()
	g.emit(g.logger.Error().Err(err), msg, fields)
}

func Fatal(msg string, err error, fields ...Fields) {
	g := Get()
	g.emit(g.logger.Fatal().Err(err), msg, fields)
}

// WithContext returns a logger with additional context fields
func WithContext(fields Fields) *Logger {
	return Get().WithContext(fields)
}
