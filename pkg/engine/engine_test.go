package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/internal/store/memory"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
)

func row(name, country, releasedAt, period, actual string) indicators.RawRecord {
	return indicators.RawRecord{
		indicators.FieldIndicator:  name,
		indicators.FieldCountry:    country,
		indicators.FieldCategory:   "prices",
		indicators.FieldSource:     "BLS",
		indicators.FieldSourceURL:  "https://bls.gov",
		indicators.FieldReleasedAt: releasedAt,
		indicators.FieldPeriod:     period,
		indicators.FieldActual:     actual,
	}
}

func TestImportCreatesEverything(t *testing.T) {
	st := memory.New()
	e := New(st)

	rows := []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
		row("CPI", "DE", "2025-06-12T08:00:00Z", "2025-05", "2.4%"),
		row("NFP", "US", "2025-06-06T12:30:00Z", "2025-05", "250K"),
	}

	result, err := e.Import(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 3, result.RecordCount)
	assert.Equal(t, 3, result.IndicatorsCreated)
	assert.Equal(t, 0, result.IndicatorsUpdated)
	assert.Equal(t, 3, result.ReleasesCreated)
	assert.Equal(t, 0, result.ReleasesUpdated)

	numIndicators, numReleases := st.Len()
	assert.Equal(t, 3, numIndicators)
	assert.Equal(t, 3, numReleases)

	// A release created in the same run as its indicator must carry the
	// freshly generated indicator id.
	ind, ok := st.Indicator(indicators.IndicatorKey{Name: "CPI", Country: "US"})
	require.True(t, ok)
	released, _ := time.Parse(time.RFC3339, "2025-06-11T12:30:00Z")
	rel, ok := st.Release(indicators.NewReleaseKey(ind.ID, released, "2025-05"))
	require.True(t, ok)
	assert.Equal(t, ind.ID, rel.IndicatorID)
	assert.Equal(t, "3.1%", rel.Actual)
}

func TestImportIsIdempotent(t *testing.T) {
	st := memory.New()
	e := New(st)

	rows := []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
		row("NFP", "US", "2025-06-06T12:30:00Z", "2025-05", "250K"),
	}

	first, err := e.Import(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created())

	second, err := e.Import(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created())
	assert.Equal(t, 2, second.IndicatorsUpdated)
	assert.Equal(t, 2, second.ReleasesUpdated)

	numIndicators, numReleases := st.Len()
	assert.Equal(t, 2, numIndicators)
	assert.Equal(t, 2, numReleases)
}

func TestRevisedValueOverwrites(t *testing.T) {
	st := memory.New()
	e := New(st)
	ctx := context.Background()

	_, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
	})
	require.NoError(t, err)

	result, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.2%"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReleasesUpdated)

	ind, _ := st.Indicator(indicators.IndicatorKey{Name: "CPI", Country: "US"})
	released, _ := time.Parse(time.RFC3339, "2025-06-11T12:30:00Z")
	rel, ok := st.Release(indicators.NewReleaseKey(ind.ID, released, "2025-05"))
	require.True(t, ok)
	assert.Equal(t, "3.2%", rel.Actual)
}

func TestLastOccurrenceWinsWithinBatch(t *testing.T) {
	st := memory.New()
	e := New(st)

	result, err := e.Import(context.Background(), []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.2%"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordCount)
	assert.Equal(t, 1, result.UniqueReleases)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.ReleasesCreated)

	ind, _ := st.Indicator(indicators.IndicatorKey{Name: "CPI", Country: "US"})
	released, _ := time.Parse(time.RFC3339, "2025-06-11T12:30:00Z")
	rel, ok := st.Release(indicators.NewReleaseKey(ind.ID, released, "2025-05"))
	require.True(t, ok)
	assert.Equal(t, "3.2%", rel.Actual)
}

func TestEquivalentTimestampsCollapse(t *testing.T) {
	st := memory.New()
	e := New(st)

	// Same instant written in two zones is one release, not two.
	result, err := e.Import(context.Background(), []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
		row("CPI", "US", "2025-06-11T08:30:00-04:00", "2025-05", "3.2%"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.UniqueReleases)

	_, numReleases := st.Len()
	assert.Equal(t, 1, numReleases)
}

func TestCreateAndUpdateSplit(t *testing.T) {
	st := memory.New()
	e := New(st)
	ctx := context.Background()

	_, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
	})
	require.NoError(t, err)

	result, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
		row("GDP", "US", "2025-06-26T12:30:00Z", "2025-Q1", "2.8%"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.IndicatorsCreated)
	assert.Equal(t, 1, result.IndicatorsUpdated)
	assert.Equal(t, 1, result.ReleasesCreated)
	assert.Equal(t, 1, result.ReleasesUpdated)
}

func TestLookupQueriesAreBounded(t *testing.T) {
	tests := []struct {
		name        string
		keys        int
		wantQueries int
	}{
		// On a cold store release lookups short-circuit (no indicator
		// resolved, so no release key can exist), leaving only the
		// indicator chunks.
		{name: "under one chunk", keys: 37, wantQueries: 1},
		{name: "three chunks", keys: 130, wantQueries: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			e := New(st)

			rows := make([]indicators.RawRecord, 0, tt.keys)
			for i := 0; i < tt.keys; i++ {
				rows = append(rows, row(fmt.Sprintf("IND-%03d", i), "US", "2025-06-11T12:30:00Z", "2025-05", "1"))
			}

			_, err := e.Import(context.Background(), rows)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQueries, st.Queries)

			// Warm store: indicator chunks plus release chunks, still
			// independent of row count.
			st.Queries = 0
			_, err = e.Import(context.Background(), rows)
			require.NoError(t, err)
			assert.Equal(t, 2*tt.wantQueries, st.Queries)
		})
	}
}

func TestValidationRejectsWholeBatch(t *testing.T) {
	st := memory.New()
	e := New(st)

	rows := []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"), // row 2
		row("", "US", "2025-06-11T12:30:00Z", "2025-05", ""),        // row 3: missing indicator
		row("NFP", "US", "not-a-time", "2025-05", ""),               // row 4: bad timestamp
		row("GDP", "", "2025-06-26T12:30:00Z", "2025-Q1", ""),       // row 5: missing country
		row("PMI", "US", "2025-06-02T14:00:00Z", "2025-05", ""),     // row 6
	}

	result, err := e.Import(context.Background(), rows)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	require.Len(t, result.RowErrors, 3)
	assert.Equal(t, 3, result.RowErrors[0].Row)
	assert.Equal(t, indicators.FieldIndicator, result.RowErrors[0].Field)
	assert.Equal(t, 4, result.RowErrors[1].Row)
	assert.Equal(t, indicators.FieldReleasedAt, result.RowErrors[1].Field)
	assert.Equal(t, 5, result.RowErrors[2].Row)
	assert.Equal(t, indicators.FieldCountry, result.RowErrors[2].Field)

	// Nothing written, valid rows included.
	numIndicators, numReleases := st.Len()
	assert.Equal(t, 0, numIndicators)
	assert.Equal(t, 0, numReleases)
	assert.Equal(t, 0, st.Queries)
}

func TestValidationErrorCap(t *testing.T) {
	st := memory.New()
	e := New(st, WithErrorCap(2))

	rows := make([]indicators.RawRecord, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, row("", "US", "2025-06-11T12:30:00Z", "2025-05", ""))
	}

	result, err := e.Import(context.Background(), rows)
	require.Error(t, err)
	assert.Len(t, result.RowErrors, 2)
	assert.Equal(t, 3, result.TruncatedErrors)
}

func TestTimestampLayouts(t *testing.T) {
	st := memory.New()
	e := New(st)

	result, err := e.Import(context.Background(), []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", ""),
		row("CPI", "DE", "2025-06-11 12:30:00", "2025-05", ""),
		row("CPI", "FR", "2025-06-11 12:30", "2025-05", ""),
		row("CPI", "JP", "2025-06-11", "2025-05", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.ReleasesCreated)
}

// unreachableStore wraps a Store and fails every indicator lookup.
type unreachableStore struct {
	store.Store
}

func (s *unreachableStore) LookupIndicators(context.Context, []indicators.IndicatorKey) (map[indicators.IndicatorKey]string, error) {
	return nil, fmt.Errorf("connection refused: %w", errors.ErrStoreUnavailable)
}

func TestLookupFailureAbortsBeforeWrites(t *testing.T) {
	st := memory.New()
	e := New(&unreachableStore{Store: st})

	_, err := e.Import(context.Background(), []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
	})
	require.Error(t, err)

	var lookupErr *errors.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "indicator", lookupErr.Entity)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)

	// Nothing was written, so re-running the batch is safe.
	numIndicators, numReleases := st.Len()
	assert.Equal(t, 0, numIndicators)
	assert.Equal(t, 0, numReleases)
}

// failingStore wraps a Store and fails updates for one release id.
type failingStore struct {
	store.Store
	failID string
}

func (s *failingStore) UpdateRelease(ctx context.Context, row indicators.Release) error {
	if row.ID == s.failID {
		return fmt.Errorf("connection reset: %w", errors.ErrStoreUnavailable)
	}
	return s.Store.UpdateRelease(ctx, row)
}

func TestPartialWriteReportsAccurateCounts(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	_, err := New(st).Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
		row("NFP", "US", "2025-06-06T12:30:00Z", "2025-05", "250K"),
	})
	require.NoError(t, err)

	ind, _ := st.Indicator(indicators.IndicatorKey{Name: "CPI", Country: "US"})
	released, _ := time.Parse(time.RFC3339, "2025-06-11T12:30:00Z")
	cpi, _ := st.Release(indicators.NewReleaseKey(ind.ID, released, "2025-05"))

	e := New(&failingStore{Store: st, failID: cpi.ID})
	result, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.2%"),
		row("NFP", "US", "2025-06-06T12:30:00Z", "2025-05", "255K"),
	})
	require.Error(t, err)

	var storeErr *errors.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "release", storeErr.Entity)
	assert.Equal(t, cpi.ID, storeErr.ID)

	// The sibling update still landed and is counted.
	assert.Equal(t, 2, result.IndicatorsUpdated)
	assert.Equal(t, 1, result.ReleasesUpdated)
}

func TestRevisionSinkReceivesOldAndNew(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	var revisions []Revision
	e := New(st, WithRevisionSink(RevisionSinkFunc(func(_ context.Context, rev Revision) error {
		revisions = append(revisions, rev)
		return nil
	})))

	_, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
	})
	require.NoError(t, err)
	assert.Empty(t, revisions, "creates do not emit revisions")

	_, err = e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.2%"),
	})
	require.NoError(t, err)

	require.Len(t, revisions, 1)
	assert.Equal(t, "3.1%", revisions[0].Old)
	assert.Equal(t, "3.2%", revisions[0].New)
}

func TestRevisionSinkFailureDoesNotFailRun(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	e := New(st, WithRevisionSink(RevisionSinkFunc(func(context.Context, Revision) error {
		return fmt.Errorf("sink down")
	})))

	_, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.1%"),
	})
	require.NoError(t, err)

	result, err := e.Import(ctx, []indicators.RawRecord{
		row("CPI", "US", "2025-06-11T12:30:00Z", "2025-05", "3.2%"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReleasesUpdated)
}

func TestEmptyBatch(t *testing.T) {
	e := New(memory.New())
	result, err := e.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordCount)
	assert.False(t, result.HasChanges())
}
