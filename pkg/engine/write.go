package engine

import (
	"context"
	"sync"

	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
	"github.com/macrohub/macrosync/pkg/logging"
)

// UpdateOutcome is the result of one dispatched update. The writer collects
// an outcome per instruction instead of a single pass/fail flag, so callers
// can see exactly which keys succeeded when a batch partially fails.
type UpdateOutcome struct {
	Entity string // "indicator" or "release"
	ID     string
	Err    error
}

// writeIndicators applies the indicator phase of a plan: one bulk insert for
// all creates, then all updates dispatched concurrently and awaited
// together. Generated ids are merged into indicatorIDs so the release phase
// can resolve indicators created in this run.
func (e *Engine) writeIndicators(ctx context.Context, p *Plan, indicatorIDs map[indicators.IndicatorKey]string) ([]UpdateOutcome, error) {
	if len(p.IndicatorInserts) > 0 {
		ids, err := e.store.InsertIndicators(ctx, p.IndicatorInserts)
		if err != nil {
			return nil, errors.WrapStore("insert", "indicator", "", err)
		}
		for i, row := range p.IndicatorInserts {
			indicatorIDs[row.Key()] = ids[i]
		}
	}

	outcomes := make([]UpdateOutcome, len(p.IndicatorUpdates))
	var wg sync.WaitGroup
	for i, row := range p.IndicatorUpdates {
		i, row := i, row
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = UpdateOutcome{
				Entity: "indicator",
				ID:     row.ID,
				Err:    e.store.UpdateIndicator(ctx, row),
			}
		}()
	}
	wg.Wait()

	return outcomes, firstUpdateError(outcomes)
}

// writeReleases applies the release phase of a plan. Inserts pick up
// indicator ids generated in the indicator phase; a row whose indicator key
// still has no id can only mean the indicator insert was skipped upstream,
// and the store will reject it as a constraint violation rather than the
// engine dropping it silently.
func (e *Engine) writeReleases(ctx context.Context, p *Plan, indicatorIDs map[indicators.IndicatorKey]string) ([]UpdateOutcome, error) {
	if len(p.ReleaseInserts) > 0 {
		rows := make([]indicators.Release, len(p.ReleaseInserts))
		for i, ins := range p.ReleaseInserts {
			row := ins.Release
			if row.IndicatorID == "" {
				row.IndicatorID = indicatorIDs[ins.Indicator]
			}
			rows[i] = row
		}
		if _, err := e.store.InsertReleases(ctx, rows); err != nil {
			return nil, errors.WrapStore("insert", "release", "", err)
		}
	}

	outcomes := make([]UpdateOutcome, len(p.ReleaseUpdates))
	var wg sync.WaitGroup
	for i, upd := range p.ReleaseUpdates {
		i, upd := i, upd
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := e.store.UpdateRelease(ctx, upd.Release)
			outcomes[i] = UpdateOutcome{Entity: "release", ID: upd.Release.ID, Err: err}
			if err == nil {
				e.emitRevision(ctx, upd)
			}
		}()
	}
	wg.Wait()

	return outcomes, firstUpdateError(outcomes)
}

// emitRevision notifies the revision sink of an applied release update.
// Sink failures are logged and swallowed; collaborators never fail a run.
func (e *Engine) emitRevision(ctx context.Context, upd ReleaseUpdate) {
	if e.revisions == nil {
		return
	}
	rev := Revision{
		Key: upd.Release.Key(),
		Old: upd.OldActual,
		New: upd.Release.Actual,
	}
	if err := e.revisions.ReleaseRevised(ctx, rev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("release", rev.Key.String()).Msg("Revision sink failed")
	}
}

// firstUpdateError returns a StoreError for the first failed outcome, after
// every update has settled. Because updates are dispatched concurrently,
// sibling updates may already be applied when this fires: a batch that
// "failed" is possibly partially applied, never rolled back.
func firstUpdateError(outcomes []UpdateOutcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			return errors.WrapStore("update", o.Entity, o.ID, o.Err)
		}
	}
	return nil
}

// countSuccesses tallies the outcomes with no error.
func countSuccesses(outcomes []UpdateOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}
