package macrosync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrohub/macrosync/internal/audit"
	"github.com/macrohub/macrosync/internal/store/memory"
	"github.com/macrohub/macrosync/pkg/authority"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/feeds"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// stubSource is a feed source serving a fixed event list.
type stubSource struct {
	name   string
	events []feeds.Event
	err    error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context) ([]feeds.Event, error) {
	return s.events, s.err
}

func feedEvent(source, indicator string, releasedAt time.Time, actual string) feeds.Event {
	return feeds.Event{
		Source: source,
		Record: indicators.Record{
			Indicator:  indicator,
			Country:    "US",
			Category:   "employment",
			Source:     source,
			SourceURL:  "https://example.com",
			ReleasedAt: releasedAt,
			Period:     "2025-05",
			Actual:     actual,
		},
	}
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New()
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestImportRoundTrip(t *testing.T) {
	st := memory.New()
	ms, err := New(WithStore(st))
	require.NoError(t, err)
	ctx := context.Background()

	rows := []indicators.RawRecord{{
		indicators.FieldIndicator:  "CPI",
		indicators.FieldCountry:    "US",
		indicators.FieldCategory:   "prices",
		indicators.FieldSource:     "BLS",
		indicators.FieldSourceURL:  "https://bls.gov",
		indicators.FieldReleasedAt: "2025-06-11T12:30:00Z",
		indicators.FieldPeriod:     "2025-05",
		indicators.FieldActual:     "3.1%",
	}}

	result, err := ms.Import(ctx, rows, "analyst")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReleasesCreated)

	// A revised figure for the same release updates in place.
	rows[0][indicators.FieldActual] = "3.2%"
	result, err = ms.Import(ctx, rows, "analyst")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ReleasesCreated)
	assert.Equal(t, 1, result.ReleasesUpdated)

	ind, ok := st.Indicator(indicators.IndicatorKey{Name: "CPI", Country: "US"})
	require.True(t, ok)
	released, _ := time.Parse(time.RFC3339, "2025-06-11T12:30:00Z")
	rel, ok := st.Release(indicators.NewReleaseKey(ind.ID, released, "2025-05"))
	require.True(t, ok)
	assert.Equal(t, "3.2%", rel.Actual)
}

func TestSyncWithoutSources(t *testing.T) {
	ms, err := New(WithStore(memory.New()))
	require.NoError(t, err)

	_, err = ms.Sync(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoSource)
}

func TestSyncDeduplicatesAcrossSources(t *testing.T) {
	at := time.Date(2025, 6, 6, 12, 30, 0, 0, time.UTC)
	st := memory.New()

	ms, err := New(
		WithStore(st),
		WithAuthority(authority.New("govstats", "tradingfloor")),
		WithSources(
			&stubSource{name: "tradingfloor", events: []feeds.Event{
				feedEvent("tradingfloor", "NFP", at, "250K"),
			}},
			&stubSource{name: "govstats", events: []feeds.Event{
				feedEvent("govstats", "NFP", at.Add(time.Hour), "251K"),
			}},
		),
	)
	require.NoError(t, err)

	result, err := ms.Sync(context.Background())
	require.NoError(t, err)

	// Both feeds reported the same real-world release; the authoritative
	// source's figures win and no schedule change is reported.
	assert.Equal(t, 1, result.ReleasesCreated)
	assert.Equal(t, 1, result.IndicatorsCreated)
	assert.Empty(t, result.ScheduleChanges)

	_, numReleases := st.Len()
	assert.Equal(t, 1, numReleases)

	ind, _ := st.Indicator(indicators.IndicatorKey{Name: "NFP", Country: "US"})
	rel, ok := st.Release(indicators.NewReleaseKey(ind.ID, at.Add(time.Hour), "2025-05"))
	require.True(t, ok)
	assert.Equal(t, "251K", rel.Actual)
}

func TestSyncReportsScheduleChangesAcrossRuns(t *testing.T) {
	at := time.Date(2025, 6, 6, 12, 30, 0, 0, time.UTC)
	moved := at.Add(2 * time.Hour)
	src := &stubSource{name: "tradingfloor", events: []feeds.Event{
		feedEvent("tradingfloor", "NFP", at, ""),
	}}

	ms, err := New(WithStore(memory.New()), WithSources(src))
	require.NoError(t, err)
	ctx := context.Background()

	result, err := ms.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.ScheduleChanges)

	// The feed moves the release time between runs.
	src.events = []feeds.Event{feedEvent("tradingfloor", "NFP", moved, "")}
	result, err = ms.Sync(ctx)
	require.NoError(t, err)

	require.Len(t, result.ScheduleChanges, 1)
	assert.True(t, result.ScheduleChanges[0].From.Equal(at))
	assert.True(t, result.ScheduleChanges[0].To.Equal(moved))
}

func TestSyncSkipsFailingSources(t *testing.T) {
	at := time.Date(2025, 6, 6, 12, 30, 0, 0, time.UTC)

	ms, err := New(
		WithStore(memory.New()),
		WithSources(
			&stubSource{name: "broken", err: fmt.Errorf("connection refused")},
			&stubSource{name: "tradingfloor", events: []feeds.Event{
				feedEvent("tradingfloor", "NFP", at, "250K"),
			}},
		),
	)
	require.NoError(t, err)

	result, err := ms.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReleasesCreated)
}

// recordingAudit keeps emitted audit entries for assertions.
type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func TestSyncFailsWhenEverySourceFails(t *testing.T) {
	trail := &recordingAudit{}
	ms, err := New(
		WithStore(memory.New()),
		WithAudit(trail),
		WithSources(&stubSource{name: "broken", err: fmt.Errorf("connection refused")}),
	)
	require.NoError(t, err)

	_, err = ms.Sync(context.Background())
	require.Error(t, err)

	var feedErr *errors.FeedError
	assert.True(t, errors.As(err, &feedErr))

	// A fully failed sync still leaves an audit entry.
	require.Len(t, trail.entries, 1)
	assert.Equal(t, "sync", trail.entries[0].Action)
	assert.Equal(t, 1, trail.entries[0].Metadata["sources_failed"])
}
