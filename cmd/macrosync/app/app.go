// Package app wires the macrosync CLI: configuration, logging, dependency
// construction, and the cobra command tree.
package app

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/macrohub/macrosync"
	"github.com/macrohub/macrosync/internal/config"
	"github.com/macrohub/macrosync/internal/sources/local"
	"github.com/macrohub/macrosync/internal/store/memory"
	"github.com/macrohub/macrosync/internal/store/postgres"
	"github.com/macrohub/macrosync/pkg/authority"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/feeds"
)

// App holds the CLI's dependencies: configuration, logger, and the lazily
// created macrosync client.
type App struct {
	version string
	commit  string
	date    string

	config *Config
	logger zerolog.Logger

	mu     sync.Mutex
	client macrosync.Macrosync
	pg     *postgres.Store
}

// New creates an App with loaded configuration and a configured logger.
func New(version, commit, date string) (*App, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return &App{
		version: version,
		commit:  commit,
		date:    date,
		config:  config,
		logger:  NewLogger(config),
	}, nil
}

// Execute runs the CLI.
func Execute(version, commit, date string) error {
	a, err := New(version, commit, date)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	root := a.rootCommand()
	if err := root.Execute(); err != nil {
		return err
	}
	return nil
}

// rootCommand builds the command tree.
func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "macrosync",
		Short:         "Reconcile economic-indicator releases into the canonical store",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", a.version, a.commit, a.date),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Re-resolve config after cobra parsed the persistent flags.
			a.config.Verbose = viper.GetBool("verbose")
			a.config.Quiet = viper.GetBool("quiet")
			if level := viper.GetString("log_level"); level != "" {
				a.config.LogLevel = level
			}
			a.logger = NewLogger(a.config)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.BoolP("quiet", "q", false, "warnings and errors only")
	flags.String("log-level", "", "explicit log level (trace|debug|info|warn|error)")
	flags.String("database-url", "", "Postgres DSN (empty = in-memory store)")
	flags.String("priority-file", "", "YAML file with the feed source priority order")
	flags.StringSlice("calendar", nil, "local calendar feed as name=path (repeatable)")
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("database_url", flags.Lookup("database-url"))
	_ = viper.BindPFlag("priority_file", flags.Lookup("priority-file"))
	_ = viper.BindPFlag("calendars", flags.Lookup("calendar"))

	root.AddCommand(a.uploadCommand())
	root.AddCommand(a.syncCommand())
	root.AddCommand(a.serveCommand())
	root.AddCommand(a.migrateCommand())
	return root
}

// Client returns the macrosync client, creating it lazily. The store is
// Postgres when a database URL is configured, otherwise the in-memory store
// (useful for dry runs and local experiments, with a warning since nothing
// persists).
func (a *App) Client(cmd *cobra.Command) (macrosync.Macrosync, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	opts := []macrosync.Option{}

	dsn := config.DatabaseURL()
	if dsn == "" {
		dsn = a.config.DatabaseURL
	}
	if dsn != "" {
		pg, err := postgres.New(cmd.Context(), dsn)
		if err != nil {
			return nil, err
		}
		a.pg = pg
		opts = append(opts, macrosync.WithStore(pg))
	} else {
		a.logger.Warn().Msg("No database configured, using in-memory store; nothing will persist")
		opts = append(opts, macrosync.WithStore(memory.New()))
	}

	if path := viper.GetString("priority_file"); path != "" {
		order, err := authority.Load(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, macrosync.WithAuthority(order))
	}

	sources, err := a.calendarSources()
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		opts = append(opts, macrosync.WithSources(sources...))
	}

	client, err := macrosync.New(opts...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// calendarSources builds local feed sources from name=path flags.
func (a *App) calendarSources() ([]feeds.Source, error) {
	entries := viper.GetStringSlice("calendars")
	if len(entries) == 0 {
		entries = a.config.Calendars
	}

	sources := make([]feeds.Source, 0, len(entries))
	for _, entry := range entries {
		name, path, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, errors.NewConfigError("calendar", fmt.Sprintf("expected name=path, got %q", entry), nil)
		}
		sources = append(sources, local.New(name, path))
	}
	return sources, nil
}

// Close releases held resources.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pg != nil {
		a.pg.Close()
		a.pg = nil
	}
}
