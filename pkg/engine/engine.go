// Package engine implements the reconciliation engine: the pipeline that
// takes a batch of incoming indicator-release records, resolves them against
// the store by natural key, decides create-vs-update, and writes the result
// in a bounded number of storage round trips regardless of batch size.
//
// A run is validate → index → resolve → plan → write. Validation and
// indexing are pure and sequential; resolution and writing are the only
// I/O-bound phases. Within the writer, same-entity updates fan out
// concurrently; the indicator phase always completes before the release
// phase because releases reference indicator ids created there.
//
// The engine performs no retries and takes no cross-batch locks: two
// concurrent overlapping batches race with last-writer-wins at the store.
package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/pkg/indicators"
	"github.com/macrohub/macrosync/pkg/logging"
)

// DefaultErrorCap limits how many per-row validation errors are reported
// back to the caller. Every row is still checked; only the report is capped.
const DefaultErrorCap = 25

// Revision is emitted to the revision sink on every applied release update.
// Recording revision history is a downstream concern; the engine's only
// contract is to deliver the true old and new values.
type Revision struct {
	Key indicators.ReleaseKey
	Old string
	New string
}

// RevisionSink receives revision events. Implementations are collaborators:
// their errors are logged and never fail a run.
type RevisionSink interface {
	ReleaseRevised(ctx context.Context, rev Revision) error
}

// RevisionSinkFunc adapts a function to the RevisionSink interface.
type RevisionSinkFunc func(ctx context.Context, rev Revision) error

// ReleaseRevised implements RevisionSink.
func (f RevisionSinkFunc) ReleaseRevised(ctx context.Context, rev Revision) error {
	return f(ctx, rev)
}

// Engine reconciles batches of records against a Store.
type Engine struct {
	store     store.Store
	chunkSize int
	errorCap  int
	revisions RevisionSink
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets how many natural keys are resolved per lookup query.
func WithChunkSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.chunkSize = size
		}
	}
}

// WithErrorCap sets the maximum number of row errors reported per batch.
func WithErrorCap(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.errorCap = limit
		}
	}
}

// WithRevisionSink sets the sink notified on every applied release update.
func WithRevisionSink(sink RevisionSink) Option {
	return func(e *Engine) {
		e.revisions = sink
	}
}

// New creates an Engine writing to the given store.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		chunkSize: DefaultChunkSize,
		errorCap:  DefaultErrorCap,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Import validates a batch of raw rows and reconciles it. If any row fails
// validation the whole batch is rejected before anything is written: the
// returned result carries the capped per-row error list and the error
// matches errors.ErrInvalidInput.
func (e *Engine) Import(ctx context.Context, raw []indicators.RawRecord) (*indicators.ImportResult, error) {
	records, verr := validate(raw, e.errorCap)
	if verr != nil {
		result := &indicators.ImportResult{
			RecordCount:     len(raw),
			RowErrors:       verr.Rows,
			TruncatedErrors: verr.Truncated,
		}
		return result, verr
	}
	return e.Reconcile(ctx, records)
}

// Reconcile runs an already-validated batch through index → resolve → plan
// → write and reports counts.
//
// Error semantics follow the phase that failed: a resolution error aborts
// before any write and re-running is safe; a write error may leave the batch
// partially applied, and the returned result still carries accurate counts
// of what was applied before and alongside the failure.
func (e *Engine) Reconcile(ctx context.Context, records []indicators.Record) (*indicators.ImportResult, error) {
	log := logging.Ctx(ctx)

	idx := index(records)
	result := &indicators.ImportResult{
		RecordCount:      len(records),
		UniqueIndicators: idx.indicators.Len(),
		UniqueReleases:   idx.releases.Len(),
	}
	result.Skipped = len(records) - idx.releases.Len()

	// Resolve which natural keys already exist, in chunked queries.
	indicatorIDs, err := e.resolveIndicators(ctx, idx.indicators.Keys())
	if err != nil {
		return result, err
	}
	releaseRefs, err := e.resolveReleases(ctx, idx.releases.Keys(), indicatorIDs)
	if err != nil {
		return result, err
	}

	p := plan(idx, indicatorIDs, releaseRefs)
	log.Debug().
		Int("indicator_inserts", len(p.IndicatorInserts)).
		Int("indicator_updates", len(p.IndicatorUpdates)).
		Int("release_inserts", len(p.ReleaseInserts)).
		Int("release_updates", len(p.ReleaseUpdates)).
		Msg("Reconciliation plan built")

	// Indicators strictly before releases: release rows reference indicator
	// ids generated in the indicator phase.
	indicatorOutcomes, err := e.writeIndicators(ctx, p, indicatorIDs)
	result.IndicatorsUpdated = countSuccesses(indicatorOutcomes)
	if err == nil {
		result.IndicatorsCreated = len(p.IndicatorInserts)
	}
	if err != nil {
		logOutcomes(log, indicatorOutcomes)
		return result, err
	}

	releaseOutcomes, err := e.writeReleases(ctx, p, indicatorIDs)
	result.ReleasesUpdated = countSuccesses(releaseOutcomes)
	if err == nil {
		result.ReleasesCreated = len(p.ReleaseInserts)
	}
	if err != nil {
		logOutcomes(log, releaseOutcomes)
		return result, err
	}

	log.Info().
		Int("indicators_created", result.IndicatorsCreated).
		Int("indicators_updated", result.IndicatorsUpdated).
		Int("releases_created", result.ReleasesCreated).
		Int("releases_updated", result.ReleasesUpdated).
		Msg("Batch reconciled")

	return result, nil
}

// logOutcomes records each failed update so operators can see exactly which
// rows were left behind by a partially applied batch.
func logOutcomes(log *zerolog.Logger, outcomes []UpdateOutcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn().Str("entity", o.Entity).Str("id", o.ID).Err(o.Err).Msg("Update failed")
		}
	}
}
