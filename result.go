package macrosync

import (
	"fmt"

	"github.com/macrohub/macrosync/pkg/feeds"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// Result is the outcome of one Import or Sync run.
type Result struct {
	*indicators.ImportResult

	// ScheduleChanges lists release timestamp moves detected on the sync
	// path, reported separately from ordinary creates and updates so
	// operators can review them.
	ScheduleChanges []feeds.ScheduleChange `json:"schedule_changes,omitempty"`
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	s := r.ImportResult.Summary()
	if len(r.ScheduleChanges) > 0 {
		s += fmt.Sprintf(", %d schedule changes", len(r.ScheduleChanges))
	}
	return s
}
