package feeds

import (
	"strings"

	"golang.org/x/text/cases"
)

// folder performs Unicode case folding for fingerprint normalization, so
// "Non-Farm Payrolls" and "NON-FARM  PAYROLLS" fingerprint identically.
var folder = cases.Fold()

// Fingerprint is a normalized signature identifying one real-world release
// across sources. The calendar day stands in for the full timestamp on
// purpose: sources disagree on exact publication time, but not on the day.
type Fingerprint struct {
	Indicator string
	Country   string
	Day       string // UTC calendar day, YYYY-MM-DD
}

// fingerprint computes the event's fingerprint.
func fingerprint(ev Event) Fingerprint {
	return Fingerprint{
		Indicator: foldName(ev.Record.Indicator),
		Country:   foldName(ev.Record.Country),
		Day:       ev.Record.ReleasedAt.UTC().Format("2006-01-02"),
	}
}

// foldName case-folds and collapses internal whitespace. Folding is only
// for matching; the winning event's raw name is what gets stored.
func foldName(s string) string {
	return folder.String(strings.Join(strings.Fields(s), " "))
}
