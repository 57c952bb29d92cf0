// Command macrosync ingests economic-indicator releases from spreadsheets
// and scheduled feeds and reconciles them into the canonical store.
package main

import (
	"os"

	"github.com/macrohub/macrosync/cmd/macrosync/app"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := app.Execute(version, commit, date); err != nil {
		os.Exit(1)
	}
}
