// Package store defines the storage boundary for the reconciliation engine:
// filtered multi-key lookup, bulk insert returning generated ids, and
// per-row update by id, over the two canonical entities.
//
// Lookup calls receive at most one chunk of keys at a time; chunking is the
// resolver's responsibility, so every implementation can translate one call
// into one query (an OR of per-key ANDs).
package store

import (
	"context"

	"github.com/macrohub/macrosync/pkg/indicators"
)

// ReleaseRef identifies an existing release row. The current actual value is
// carried along so that the writer can emit revision events with the old
// value without a second lookup.
type ReleaseRef struct {
	ID     string
	Actual string
}

// Store is the abstract CRUD boundary over Indicators and Releases.
//
// Implementations must surface referential-integrity failures (a release
// pointing at a missing indicator) as errors matching errors.ErrConstraint.
type Store interface {
	// LookupIndicators returns the ids of the given natural keys that exist.
	// Absent keys are simply missing from the returned map.
	LookupIndicators(ctx context.Context, keys []indicators.IndicatorKey) (map[indicators.IndicatorKey]string, error)

	// LookupReleases returns refs for the given natural keys that exist.
	LookupReleases(ctx context.Context, keys []indicators.ReleaseKey) (map[indicators.ReleaseKey]ReleaseRef, error)

	// InsertIndicators bulk-inserts rows and returns the generated ids in
	// input order.
	InsertIndicators(ctx context.Context, rows []indicators.Indicator) ([]string, error)

	// InsertReleases bulk-inserts rows and returns the generated ids in
	// input order.
	InsertReleases(ctx context.Context, rows []indicators.Release) ([]string, error)

	// UpdateIndicator overwrites the mutable fields of the row with the
	// given id.
	UpdateIndicator(ctx context.Context, row indicators.Indicator) error

	// UpdateRelease overwrites the mutable fields of the row with the
	// given id.
	UpdateRelease(ctx context.Context, row indicators.Release) error
}
