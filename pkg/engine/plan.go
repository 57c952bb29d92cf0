package engine

import (
	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// Plan is the reconciliation decision for one batch: what to insert and what
// to update, per entity type. Planning is pure; nothing here touches the
// store.
type Plan struct {
	IndicatorInserts []indicators.Indicator
	IndicatorUpdates []indicators.Indicator

	ReleaseInserts []ReleaseInsert
	ReleaseUpdates []ReleaseUpdate
}

// ReleaseInsert is a planned release creation. The indicator id may not
// exist yet; the writer fills it in from the indicator key after the
// indicator insert phase.
type ReleaseInsert struct {
	Indicator indicators.IndicatorKey
	Release   indicators.Release
}

// ReleaseUpdate is a planned release update, carrying the stored actual
// value so a revision event can report old and new together.
type ReleaseUpdate struct {
	Release   indicators.Release
	OldActual string
}

// plan decides create-vs-update for every key in the batch. A present key
// becomes an update carrying the existing id and the batch's full mutable
// field set; an absent key becomes an insert carrying the full attribute
// set. The planner never deletes and never merges field-by-field against
// stored values: every planned write replaces the mutable fields wholesale,
// even when that sets a field back to empty.
func plan(idx *batchIndex, indicatorIDs map[indicators.IndicatorKey]string, releaseRefs map[batchReleaseKey]store.ReleaseRef) *Plan {
	p := &Plan{}

	for _, key := range idx.indicators.Keys() {
		row, _ := idx.indicators.Get(key)
		if id, exists := indicatorIDs[key]; exists {
			row.ID = id
			p.IndicatorUpdates = append(p.IndicatorUpdates, row)
		} else {
			p.IndicatorInserts = append(p.IndicatorInserts, row)
		}
	}

	for _, key := range idx.releases.Keys() {
		row, _ := idx.releases.Get(key)
		row.ReleasedAt = key.ReleasedAt
		if ref, exists := releaseRefs[key]; exists {
			row.ID = ref.ID
			row.IndicatorID = indicatorIDs[key.Indicator]
			p.ReleaseUpdates = append(p.ReleaseUpdates, ReleaseUpdate{Release: row, OldActual: ref.Actual})
		} else {
			if id, ok := indicatorIDs[key.Indicator]; ok {
				row.IndicatorID = id
			}
			p.ReleaseInserts = append(p.ReleaseInserts, ReleaseInsert{Indicator: key.Indicator, Release: row})
		}
	}

	return p
}
