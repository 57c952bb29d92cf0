// Package logging provides structured logging for the macrosync system using
// zerolog. Console output is used when attached to a terminal, JSON otherwise.
//
// Example usage:
//
//	logging.Info().Str("source", "tradingfloor").Int("events", 120).Msg("Fetched feed")
//
//	ctx := logging.WithLogger(context.Background(), logger)
//	logging.Ctx(ctx).Debug().Msg("Using logger from context")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger zerolog.Logger

	// Nop logger for discarding output.
	Nop = zerolog.Nop()
)

func init() {
	Configure(DefaultConfig())
}

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum log level to output (trace..error).
	Level string

	// Format is the output format (json, console, auto).
	Format string

	// Output is where to write logs (stderr, stdout, discard, or a file path).
	Output string

	// NoColor disables color output in console mode.
	NoColor bool
}

// DefaultConfig returns a configuration with sensible defaults, honoring the
// LOG_LEVEL and LOG_FORMAT environment variables.
func DefaultConfig() *Config {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
		if os.Getenv("DEBUG") != "" {
			level = "debug"
		}
	}
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "auto"
	}
	return &Config{
		Level:   level,
		Format:  format,
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// Configure replaces the default logger with one built from cfg.
func Configure(cfg *Config) {
	SetDefault(NewFromConfig(cfg))
}

// NewFromConfig creates a new logger from configuration.
func NewFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	writer := newWriter(cfg)

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	return logger
}

// newWriter resolves the configured output destination and format.
func newWriter(cfg *Config) io.Writer {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		return io.Discard
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			out = os.Stderr
		} else {
			out = file
		}
	}

	console := cfg.Format == "console" || (cfg.Format != "json" && isTerminal(out))
	if console {
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}
	return out
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger // Also update zerolog's global logger
}

// New creates a new logger with the given writer.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// Debug starts a new debug level log event.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts a new info level log event.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a new warning level log event.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts a new error level log event.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Err creates a new error log event with the given error.
func Err(err error) *zerolog.Event {
	return defaultLogger.Err(err)
}

// isTerminal checks if the writer is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
