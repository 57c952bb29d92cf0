package engine

import (
	"time"

	"github.com/macrohub/macrosync/pkg/indicators"
)

// batchReleaseKey identifies a release within a batch, before indicator ids
// are known: the indicator's natural key stands in for its id.
type batchReleaseKey struct {
	Indicator  indicators.IndicatorKey
	ReleasedAt time.Time
	Period     string
}

// newBatchReleaseKey normalizes the timestamp the same way
// indicators.NewReleaseKey does, so the struct is usable as a map key.
func newBatchReleaseKey(ik indicators.IndicatorKey, releasedAt time.Time, period string) batchReleaseKey {
	return batchReleaseKey{
		Indicator:  ik,
		ReleasedAt: releasedAt.UTC().Truncate(time.Second),
		Period:     period,
	}
}

// orderedMap is a map that remembers first-insertion order. Overwriting an
// existing key replaces the value but keeps the key's position, so a batch
// stays in upload order while later rows win.
type orderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{values: make(map[K]V)}
}

func (m *orderedMap[K, V]) Set(key K, value V) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *orderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *orderedMap[K, V]) Len() int {
	return len(m.keys)
}

func (m *orderedMap[K, V]) Keys() []K {
	return m.keys
}

// batchIndex is the deduplicated view of one batch: unique indicators and
// unique releases by natural key, in first-appearance order.
type batchIndex struct {
	indicators *orderedMap[indicators.IndicatorKey, indicators.Indicator]
	releases   *orderedMap[batchReleaseKey, indicators.Release]
}

// index collapses a validated record sequence into the two key maps with
// last-occurrence-wins semantics. A file may legitimately mention the same
// key twice (a correction row later in the file); taking the last value
// keeps the file itself a valid diff format. No I/O.
func index(records []indicators.Record) *batchIndex {
	idx := &batchIndex{
		indicators: newOrderedMap[indicators.IndicatorKey, indicators.Indicator](),
		releases:   newOrderedMap[batchReleaseKey, indicators.Release](),
	}

	for _, rec := range records {
		ik := rec.IndicatorKey()
		idx.indicators.Set(ik, rec.ToIndicator())
		idx.releases.Set(newBatchReleaseKey(ik, rec.ReleasedAt, rec.Period), rec.ToRelease())
	}

	return idx
}
