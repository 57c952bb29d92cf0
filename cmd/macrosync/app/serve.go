package app

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/macrohub/macrosync/internal/server"
)

// serveCommand runs the HTTP API: import endpoint, health check, and metrics.
func (a *App) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := a.Client(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			config := server.DefaultConfig()
			if addr := viper.GetString("listen_addr"); addr != "" {
				config.Addr = addr
			} else if a.config.ListenAddr != "" {
				config.Addr = a.config.ListenAddr
			}

			srv := server.New(client, config, &a.logger)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("listen-addr", "", "address for the HTTP server (default :8080)")
	_ = viper.BindPFlag("listen_addr", cmd.Flags().Lookup("listen-addr"))
	return cmd
}
