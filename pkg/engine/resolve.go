package engine

import (
	"context"

	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// DefaultChunkSize is the number of natural keys resolved per lookup query.
// Storage backends cap predicate-expression length, so the resolver splits
// the key set into fixed-size chunks and issues one query per chunk: a batch
// of K unique keys costs ⌈K/C⌉ round trips regardless of row count.
const DefaultChunkSize = 50

// resolveIndicators looks up which indicator natural keys already exist.
// Any chunk failure aborts the run; nothing has been written at this stage,
// so re-running the batch is safe.
func (e *Engine) resolveIndicators(ctx context.Context, keys []indicators.IndicatorKey) (map[indicators.IndicatorKey]string, error) {
	found := make(map[indicators.IndicatorKey]string, len(keys))
	for i, part := range chunk(keys, e.chunkSize) {
		resolved, err := e.store.LookupIndicators(ctx, part)
		if err != nil {
			return nil, errors.WrapLookup("indicator", i, len(part), err)
		}
		for key, id := range resolved {
			found[key] = id
		}
	}
	return found, nil
}

// resolveReleases looks up which release natural keys already exist. Only
// keys whose indicator resolved to an id can possibly exist in the store;
// the rest belong to indicators created later in this run and are skipped.
func (e *Engine) resolveReleases(ctx context.Context, keys []batchReleaseKey, indicatorIDs map[indicators.IndicatorKey]string) (map[batchReleaseKey]store.ReleaseRef, error) {
	storeKeys := make([]indicators.ReleaseKey, 0, len(keys))
	batchKeys := make(map[indicators.ReleaseKey]batchReleaseKey, len(keys))
	for _, key := range keys {
		id, ok := indicatorIDs[key.Indicator]
		if !ok {
			continue
		}
		sk := indicators.NewReleaseKey(id, key.ReleasedAt, key.Period)
		storeKeys = append(storeKeys, sk)
		batchKeys[sk] = key
	}

	found := make(map[batchReleaseKey]store.ReleaseRef, len(storeKeys))
	for i, part := range chunk(storeKeys, e.chunkSize) {
		resolved, err := e.store.LookupReleases(ctx, part)
		if err != nil {
			return nil, errors.WrapLookup("release", i, len(part), err)
		}
		for sk, ref := range resolved {
			found[batchKeys[sk]] = ref
		}
	}
	return found, nil
}

// chunk splits items into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var parts [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		parts = append(parts, items[start:end])
	}
	return parts
}
