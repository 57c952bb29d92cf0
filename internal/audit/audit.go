// Package audit provides the audit-trail boundary. Recording is
// fire-and-forget: a failed audit write is logged and never fails the
// reconciliation that triggered it.
package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/macrohub/macrosync/pkg/logging"
)

// Entry is one audit record.
type Entry struct {
	ID           string
	Actor        string
	Action       string // "upload" or "sync"
	ResourceType string
	ResourceID   string // empty for batch-level entries
	Metadata     map[string]any
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Log records audit entries to the structured log. It is the default
// recorder; deployments with an audit database swap in their own.
type Log struct{}

// NewLog creates a log-backed recorder.
func NewLog() *Log {
	return &Log{}
}

// Record implements Recorder.
func (l *Log) Record(ctx context.Context, entry Entry) error {
	logging.Ctx(ctx).Info().
		Str("audit_id", entry.ID).
		Str("actor", entry.Actor).
		Str("action", entry.Action).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Interface("metadata", entry.Metadata).
		Msg("Audit")
	return nil
}

// Nop discards audit entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// Emit records an entry through the recorder, swallowing and logging any
// failure. Safe to call with a nil recorder.
func Emit(ctx context.Context, r Recorder, entry Entry) {
	if r == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.Record(ctx, entry); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("action", entry.Action).Msg("Audit record failed")
	}
}
