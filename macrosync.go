// Package macrosync reconciles economic-indicator release data from
// heterogeneous sources into a canonical store.
//
// Two ingestion paths share one reconciliation engine: Import takes an
// already-decoded batch of rows (a hand-uploaded spreadsheet), and Sync
// pulls candidate events from registered feed sources, collapses duplicates
// across feeds by fingerprint and source authority, and reconciles the
// survivors.
package macrosync

import (
	"context"

	"github.com/macrohub/macrosync/internal/audit"
	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/pkg/authority"
	"github.com/macrohub/macrosync/pkg/engine"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/feeds"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// Macrosync is the public surface of the reconciliation service.
type Macrosync interface {
	// Import validates and reconciles one uploaded batch of raw rows.
	// The actor is recorded on the audit trail.
	Import(ctx context.Context, rows []indicators.RawRecord, actor string) (*Result, error)

	// Sync fetches candidate events from every registered feed source,
	// deduplicates them, and reconciles the result.
	Sync(ctx context.Context) (*Result, error)
}

// client is the default Macrosync implementation.
type client struct {
	store     store.Store
	engine    *engine.Engine
	sources   []feeds.Source
	order     *authority.Order
	dedup     *feeds.Deduplicator
	tracker   *feeds.Tracker
	audit     audit.Recorder
	revisions engine.RevisionSink
	chunkSize int
	errorCap  int
}

// New creates a Macrosync client. A store is required; everything else has
// working defaults.
func New(opts ...Option) (Macrosync, error) {
	c := &client{
		order:   authority.New(),
		tracker: feeds.NewTracker(),
		audit:   audit.NewLog(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.store == nil {
		return nil, errors.NewConfigError("macrosync", "a store is required", nil)
	}

	engineOpts := []engine.Option{}
	if c.chunkSize > 0 {
		engineOpts = append(engineOpts, engine.WithChunkSize(c.chunkSize))
	}
	if c.errorCap > 0 {
		engineOpts = append(engineOpts, engine.WithErrorCap(c.errorCap))
	}
	if c.revisions != nil {
		engineOpts = append(engineOpts, engine.WithRevisionSink(c.revisions))
	}
	c.engine = engine.New(c.store, engineOpts...)
	c.dedup = feeds.NewDeduplicator(c.order)

	return c, nil
}
