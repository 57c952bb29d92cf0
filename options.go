package macrosync

import (
	"github.com/macrohub/macrosync/internal/audit"
	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/pkg/authority"
	"github.com/macrohub/macrosync/pkg/engine"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/feeds"
)

// Option configures a Macrosync client.
type Option func(*client) error

// WithStore sets the storage backend. Required.
func WithStore(s store.Store) Option {
	return func(c *client) error {
		if s == nil {
			return errors.NewConfigError("macrosync", "store cannot be nil", nil)
		}
		c.store = s
		return nil
	}
}

// WithSources registers feed sources for the sync path.
func WithSources(sources ...feeds.Source) Option {
	return func(c *client) error {
		c.sources = append(c.sources, sources...)
		return nil
	}
}

// WithAuthority sets the cross-source priority order used by the
// deduplicator.
func WithAuthority(order *authority.Order) Option {
	return func(c *client) error {
		if order == nil {
			return errors.NewConfigError("macrosync", "authority order cannot be nil", nil)
		}
		c.order = order
		return nil
	}
}

// WithAudit sets the audit recorder. Defaults to the log-backed recorder.
func WithAudit(r audit.Recorder) Option {
	return func(c *client) error {
		c.audit = r
		return nil
	}
}

// WithRevisionSink sets the sink notified on every applied release update.
func WithRevisionSink(sink engine.RevisionSink) Option {
	return func(c *client) error {
		c.revisions = sink
		return nil
	}
}

// WithChunkSize sets the resolver's lookup chunk size.
func WithChunkSize(size int) Option {
	return func(c *client) error {
		c.chunkSize = size
		return nil
	}
}

// WithErrorCap sets the maximum number of row errors reported per batch.
func WithErrorCap(limit int) Option {
	return func(c *client) error {
		c.errorCap = limit
		return nil
	}
}
