// Package metrics exposes Prometheus counters for reconciliation runs.
// Emission is a collaborator concern: the engine itself stays metrics-free
// and callers record results after each run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
)

var (
	// RecordsSeen counts raw rows received per path ("upload" or "sync").
	RecordsSeen = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macrosync_records_seen_total",
		Help: "Raw records received, before validation and dedup.",
	}, []string{"path"})

	// RecordsCreated counts created rows per entity type.
	RecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macrosync_records_created_total",
		Help: "Records created by reconciliation.",
	}, []string{"entity"})

	// RecordsUpdated counts updated rows per entity type.
	RecordsUpdated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macrosync_records_updated_total",
		Help: "Records updated by reconciliation.",
	}, []string{"entity"})

	// BatchFailures counts failed runs per error kind.
	BatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macrosync_batch_failures_total",
		Help: "Reconciliation runs that returned an error.",
	}, []string{"kind"})

	// ScheduleChanges counts schedule moves detected on the sync path.
	ScheduleChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "macrosync_schedule_changes_total",
		Help: "Release schedule changes detected across feed sources.",
	})
)

// ObserveResult records one run's counters.
func ObserveResult(path string, result *indicators.ImportResult) {
	if result == nil {
		return
	}
	RecordsSeen.WithLabelValues(path).Add(float64(result.RecordCount))
	RecordsCreated.WithLabelValues("indicator").Add(float64(result.IndicatorsCreated))
	RecordsCreated.WithLabelValues("release").Add(float64(result.ReleasesCreated))
	RecordsUpdated.WithLabelValues("indicator").Add(float64(result.IndicatorsUpdated))
	RecordsUpdated.WithLabelValues("release").Add(float64(result.ReleasesUpdated))
}

// ObserveError records a failed run under its error kind. Nil errors are
// ignored so callers can report unconditionally.
func ObserveError(err error) {
	if err == nil {
		return
	}
	BatchFailures.WithLabelValues(errorKind(err)).Inc()
}

func errorKind(err error) string {
	var (
		lookupErr *errors.LookupError
		storeErr  *errors.StoreError
		feedErr   *errors.FeedError
	)
	switch {
	case errors.IsValidation(err):
		return "validation"
	case errors.As(err, &lookupErr):
		return "lookup"
	case errors.As(err, &storeErr):
		return "store"
	case errors.As(err, &feedErr):
		return "feed"
	default:
		return "other"
	}
}
