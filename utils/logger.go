package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a printf-style facade over zerolog
type Logger struct {
	file   *os.File
	logger zerolog.Logger
}

// LogOptions control level, format and destination
type LogOptions struct {
	Level  string    // trace, debug, info, warn, error
	Format string    // console or json
	Output io.Writer // defaults to stdout
	// FileOnly drops console output when a log file is set
	FileOnly bool
}

// NewLoggerWithOptions creates a logger with explicit level and format
func NewLoggerWithOptions(logPath string, opts LogOptions) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var console io.Writer
	switch strings.ToLower(opts.Format) {
	case "", "console":
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
		console = out
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	l := &Logger{}
	writer := console
	if logPath != "" {
		dir := filepath.Dir(logPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
		// the file always gets JSON lines
		if opts.FileOnly {
			writer = file
		} else {
			writer = zerolog.MultiLevelWriter(console, file)
		}
	}

	l.logger = zerolog.New(writer).With().Timestamp().Logger().Level(level)
	return l, nil
}

// NopLogger discards everything; handy in tests
func NopLogger() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// Zerolog exposes the underlying logger for structured call sites
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// GetLogPath is ./logs/app-<date>.log
func GetLogPath() string {
	return filepath.Join(".", "logs", fmt.Sprintf("app-%s.log", time.Now().Format("2006-01-02")))
}
