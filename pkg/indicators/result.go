package indicators

import (
	"fmt"

	"github.com/macrohub/macrosync/pkg/errors"
)

// ImportResult summarizes one reconciliation run. It is produced fresh per
// run and never persisted.
type ImportResult struct {
	// Input statistics.
	RecordCount      int `json:"record_count"`      // rows seen after parsing
	UniqueIndicators int `json:"unique_indicators"` // distinct indicator keys after dedup
	UniqueReleases   int `json:"unique_releases"`   // distinct release keys after dedup

	// Write statistics.
	IndicatorsCreated int `json:"indicators_created"`
	IndicatorsUpdated int `json:"indicators_updated"`
	ReleasesCreated   int `json:"releases_created"`
	ReleasesUpdated   int `json:"releases_updated"`
	Skipped           int `json:"skipped"`

	// RowErrors holds per-row validation failures, capped by the engine.
	// TruncatedErrors counts failures beyond the cap.
	RowErrors       []*errors.RowError `json:"row_errors,omitempty"`
	TruncatedErrors int                `json:"truncated_errors,omitempty"`
}

// HasChanges returns true if the run created or updated anything.
func (r *ImportResult) HasChanges() bool {
	return r.IndicatorsCreated+r.IndicatorsUpdated+r.ReleasesCreated+r.ReleasesUpdated > 0
}

// Created returns the total number of records created across both entities.
func (r *ImportResult) Created() int {
	return r.IndicatorsCreated + r.ReleasesCreated
}

// Updated returns the total number of records updated across both entities.
func (r *ImportResult) Updated() int {
	return r.IndicatorsUpdated + r.ReleasesUpdated
}

// Summary returns a human-readable summary of the run.
func (r *ImportResult) Summary() string {
	if len(r.RowErrors) > 0 {
		return fmt.Sprintf("rejected: %d of %d rows invalid", len(r.RowErrors)+r.TruncatedErrors, r.RecordCount)
	}
	if !r.HasChanges() {
		return fmt.Sprintf("no changes (%d rows)", r.RecordCount)
	}
	return fmt.Sprintf("%d rows: indicators %d created / %d updated, releases %d created / %d updated",
		r.RecordCount, r.IndicatorsCreated, r.IndicatorsUpdated, r.ReleasesCreated, r.ReleasesUpdated)
}
