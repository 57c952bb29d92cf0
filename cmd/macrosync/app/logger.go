package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/macrohub/macrosync/pkg/logging"
)

// NewLogger creates a configured logger based on the application
// configuration. Log level precedence (highest to lowest):
//  1. --log-level flag (explicit always wins)
//  2. -v/--verbose flag (shortcut for debug)
//  3. -q/--quiet flag (shortcut for warn)
//  4. LOG_LEVEL environment variable
//  5. Default (info)
func NewLogger(config *Config) zerolog.Logger {
	logConfig := &logging.Config{
		Level:   determineLogLevel(config),
		Format:  config.LogFormat,
		Output:  config.LogOutput,
		NoColor: os.Getenv("NO_COLOR") != "",
	}

	logger := logging.NewFromConfig(logConfig)
	logging.SetDefault(logger)
	return logger
}

// determineLogLevel determines the log level using clear precedence rules.
func determineLogLevel(config *Config) string {
	if config.LogLevel != "" {
		return validateLogLevel(config.LogLevel)
	}

	if config.Verbose && config.Quiet {
		fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		return "warn"
	}
	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "warn"
	}

	return "info"
}

// validateLogLevel validates a log level string, falling back to "info".
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using \"info\"\n", level)
		return "info"
	}
}
