package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// syncCommand pulls every configured calendar feed and reconciles the
// deduplicated result.
func (a *App) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch configured feeds, deduplicate, and reconcile",
		Long: `Sync fetches candidate events from every configured calendar feed
(--calendar name=path), collapses events describing the same real-world
release using the configured source priority order (--priority-file), and
reconciles the survivors against the store.

Schedule changes (a feed moving a known release's timestamp) are listed
separately from ordinary creates and updates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := client.Sync(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(result.Summary())
			for _, change := range result.ScheduleChanges {
				fmt.Printf("schedule change: %s/%s %s moved %s -> %s (per %s)\n",
					change.Country, change.Indicator, change.Period,
					change.From.Format("2006-01-02 15:04"), change.To.Format("2006-01-02 15:04"),
					change.Source)
			}
			return nil
		},
	}
}
