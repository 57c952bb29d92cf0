package macrosync

import (
	"context"

	"github.com/macrohub/macrosync/internal/audit"
	"github.com/macrohub/macrosync/internal/metrics"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// Import validates and reconciles one uploaded batch.
//
// If any row fails validation the whole batch is rejected before anything is
// written; the returned Result still carries the capped per-row error list.
// A write error can leave the batch partially applied: the Result's counts
// reflect what was actually written.
func (c *client) Import(ctx context.Context, rows []indicators.RawRecord, actor string) (*Result, error) {
	importResult, err := c.engine.Import(ctx, rows)
	result := &Result{ImportResult: importResult}

	metrics.ObserveResult("upload", importResult)
	metrics.ObserveError(err)
	audit.Emit(ctx, c.audit, audit.Entry{
		Actor:        actor,
		Action:       "upload",
		ResourceType: "batch",
		Metadata: map[string]any{
			"records":            importResult.RecordCount,
			"indicators_created": importResult.IndicatorsCreated,
			"indicators_updated": importResult.IndicatorsUpdated,
			"releases_created":   importResult.ReleasesCreated,
			"releases_updated":   importResult.ReleasesUpdated,
			"row_errors":         len(importResult.RowErrors) + importResult.TruncatedErrors,
		},
	})

	return result, err
}
