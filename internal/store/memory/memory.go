// Package memory provides an in-memory Store implementation. It backs the
// offline CLI mode and the engine's tests, and enforces the same referential
// integrity rules a relational backend would.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// Store is a thread-safe in-memory implementation of store.Store.
type Store struct {
	mu            sync.RWMutex
	indicatorRows map[string]*indicators.Indicator // by id
	releaseRows   map[string]*indicators.Release   // by id
	indicatorIDs  map[indicators.IndicatorKey]string
	releaseIDs    map[indicators.ReleaseKey]string

	// Queries counts lookup calls, exposed for boundedness tests.
	Queries int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		indicatorRows: make(map[string]*indicators.Indicator),
		releaseRows:   make(map[string]*indicators.Release),
		indicatorIDs:  make(map[indicators.IndicatorKey]string),
		releaseIDs:    make(map[indicators.ReleaseKey]string),
	}
}

// LookupIndicators returns ids for the keys that exist.
func (s *Store) LookupIndicators(_ context.Context, keys []indicators.IndicatorKey) (map[indicators.IndicatorKey]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries++

	found := make(map[indicators.IndicatorKey]string)
	for _, key := range keys {
		if id, ok := s.indicatorIDs[key]; ok {
			found[key] = id
		}
	}
	return found, nil
}

// LookupReleases returns refs for the keys that exist.
func (s *Store) LookupReleases(_ context.Context, keys []indicators.ReleaseKey) (map[indicators.ReleaseKey]store.ReleaseRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries++

	found := make(map[indicators.ReleaseKey]store.ReleaseRef)
	for _, key := range keys {
		if id, ok := s.releaseIDs[key]; ok {
			found[key] = store.ReleaseRef{ID: id, Actual: s.releaseRows[id].Actual}
		}
	}
	return found, nil
}

// InsertIndicators bulk-inserts rows, returning generated ids in input order.
func (s *Store) InsertIndicators(_ context.Context, rows []indicators.Indicator) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		row := row
		key := row.Key()
		if _, exists := s.indicatorIDs[key]; exists {
			return nil, fmt.Errorf("indicator %s already exists: %w", key, errors.ErrConstraint)
		}
		row.ID = uuid.NewString()
		s.indicatorRows[row.ID] = &row
		s.indicatorIDs[key] = row.ID
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// InsertReleases bulk-inserts rows, returning generated ids in input order.
// Rows referencing a missing indicator fail the whole call with a
// constraint-violation error, matching relational backend behavior.
func (s *Store) InsertReleases(_ context.Context, rows []indicators.Release) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		row := row
		if _, ok := s.indicatorRows[row.IndicatorID]; !ok {
			return nil, fmt.Errorf("release references missing indicator %q: %w", row.IndicatorID, errors.ErrConstraint)
		}
		key := row.Key()
		if _, exists := s.releaseIDs[key]; exists {
			return nil, fmt.Errorf("release %s already exists: %w", key, errors.ErrConstraint)
		}
		row.ID = uuid.NewString()
		s.releaseRows[row.ID] = &row
		s.releaseIDs[key] = row.ID
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// UpdateIndicator overwrites the mutable fields of an existing row.
func (s *Store) UpdateIndicator(_ context.Context, row indicators.Indicator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.indicatorRows[row.ID]
	if !ok {
		return fmt.Errorf("indicator %s: %w", row.ID, errors.ErrNotFound)
	}
	existing.Category = row.Category
	existing.Source = row.Source
	existing.SourceURL = row.SourceURL
	return nil
}

// UpdateRelease overwrites the mutable fields of an existing row.
func (s *Store) UpdateRelease(_ context.Context, row indicators.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.releaseRows[row.ID]
	if !ok {
		return fmt.Errorf("release %s: %w", row.ID, errors.ErrNotFound)
	}
	existing.Actual = row.Actual
	existing.Forecast = row.Forecast
	existing.Previous = row.Previous
	existing.Revised = row.Revised
	existing.Unit = row.Unit
	existing.Notes = row.Notes
	return nil
}

// Indicator returns a copy of the indicator with the given natural key, for
// assertions in tests and the CLI's offline mode.
func (s *Store) Indicator(key indicators.IndicatorKey) (indicators.Indicator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.indicatorIDs[key]
	if !ok {
		return indicators.Indicator{}, false
	}
	return *s.indicatorRows[id], true
}

// Release returns a copy of the release with the given natural key.
func (s *Store) Release(key indicators.ReleaseKey) (indicators.Release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.releaseIDs[key]
	if !ok {
		return indicators.Release{}, false
	}
	return *s.releaseRows[id], true
}

// Len returns the number of stored indicators and releases.
func (s *Store) Len() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indicatorRows), len(s.releaseRows)
}
