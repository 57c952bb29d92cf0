// Package feeds handles the multi-source scheduled ingestion path: candidate
// events fetched from external calendar feeds are collapsed into one record
// per real-world release before reconciliation.
//
// Two feeds rarely agree on the exact publication minute of the same
// release, so events are matched by fingerprint (folded indicator name,
// country, calendar day) rather than full timestamp. Which source's values
// survive is decided by an explicitly configured authority order.
package feeds

import (
	"context"

	"github.com/macrohub/macrosync/pkg/indicators"
)

// Event is one candidate release reported by a named feed source.
type Event struct {
	// Source is the feed source name, matched against the authority order.
	Source string

	// Record carries the candidate's field values, already decoded and
	// validated by the source adapter.
	Record indicators.Record

	// Confirmed marks the publication time as confirmed by the feed, for
	// feeds that distinguish provisional from confirmed schedules.
	Confirmed bool
}

// Source is a feed adapter that produces candidate events. Provider-specific
// decoding (SDMX, JSON, scraped HTML) lives behind this interface and is not
// the engine's concern.
type Source interface {
	// Name returns the source name used for authority ordering.
	Name() string

	// Fetch returns the current candidate events from this feed.
	Fetch(ctx context.Context) ([]Event, error)
}
