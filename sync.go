package macrosync

import (
	"context"

	"github.com/macrohub/macrosync/internal/audit"
	"github.com/macrohub/macrosync/internal/metrics"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/feeds"
	"github.com/macrohub/macrosync/pkg/indicators"
	"github.com/macrohub/macrosync/pkg/logging"
)

// Sync fetches candidate events from every registered feed source, collapses
// cross-source duplicates by fingerprint and authority order, and reconciles
// the surviving records.
//
// A source that fails to fetch is logged and skipped; the run proceeds with
// the remaining sources. Only when every source fails does Sync return the
// first fetch error.
func (c *client) Sync(ctx context.Context) (*Result, error) {
	log := logging.Ctx(ctx)

	if len(c.sources) == 0 {
		return nil, errors.ErrNoSource
	}

	var (
		events     []feeds.Event
		fetchErrs  []error
		numFetched int
	)
	for _, src := range c.sources {
		fetched, err := src.Fetch(ctx)
		if err != nil {
			log.Warn().Err(err).Str("source", src.Name()).Msg("Feed fetch failed, skipping source")
			fetchErrs = append(fetchErrs, errors.WrapFeed(src.Name(), err))
			continue
		}
		log.Debug().Str("source", src.Name()).Int("events", len(fetched)).Msg("Fetched feed")
		events = append(events, fetched...)
		numFetched++
	}
	if numFetched == 0 {
		metrics.ObserveError(fetchErrs[0])
		audit.Emit(ctx, c.audit, audit.Entry{
			Actor:        "scheduler",
			Action:       "sync",
			ResourceType: "batch",
			Metadata: map[string]any{
				"sources_failed": len(fetchErrs),
				"error":          fetchErrs[0].Error(),
			},
		})
		return nil, fetchErrs[0]
	}

	winners, changes := c.dedup.Deduplicate(events)

	// Only the surviving event per fingerprint goes through the schedule
	// state machine: within-run disagreements were already settled by the
	// deduplicator, so the tracker reports cross-run timestamp moves.
	records := make([]indicators.Record, 0, len(winners))
	for _, ev := range winners {
		if _, change := c.tracker.Observe(ev); change != nil {
			changes = append(changes, *change)
		}
		records = append(records, ev.Record)
	}
	log.Info().
		Int("events", len(events)).
		Int("unique", len(records)).
		Int("schedule_changes", len(changes)).
		Msg("Feed events deduplicated")

	importResult, err := c.engine.Reconcile(ctx, records)
	result := &Result{ImportResult: importResult, ScheduleChanges: changes}

	metrics.ObserveResult("sync", importResult)
	metrics.ObserveError(err)
	metrics.ScheduleChanges.Add(float64(len(changes)))
	audit.Emit(ctx, c.audit, audit.Entry{
		Actor:        "scheduler",
		Action:       "sync",
		ResourceType: "batch",
		Metadata: map[string]any{
			"sources":          numFetched,
			"events":           len(events),
			"unique":           len(records),
			"schedule_changes": len(changes),
		},
	})

	return result, err
}
