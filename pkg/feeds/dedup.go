package feeds

import (
	"time"

	"github.com/macrohub/macrosync/pkg/authority"
)

// ScheduleChange reports that a later-arriving source moved a release's
// timestamp. Operators review these separately from ordinary creates and
// updates.
type ScheduleChange struct {
	Indicator string    `json:"indicator"`
	Country   string    `json:"country"`
	Period    string    `json:"period"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Source    string    `json:"source"` // the source whose timestamp won
}

// Deduplicator collapses logically identical events reported by more than
// one feed before they reach the indexer.
type Deduplicator struct {
	order *authority.Order
}

// NewDeduplicator creates a Deduplicator using the given source priority
// order.
func NewDeduplicator(order *authority.Order) *Deduplicator {
	return &Deduplicator{order: order}
}

// Deduplicate keeps one event per fingerprint and returns the survivors in
// first-appearance order, plus any schedule changes detected.
//
// Selection rules, applied in arrival order:
//   - a lower-priority source never overwrites a higher-priority source's
//     event for the same fingerprint;
//   - a higher-priority source replaces whatever is kept;
//   - within the same priority tier the later arrival wins, and if its
//     timestamp differs the move is reported as a schedule change rather
//     than folded silently into the update.
func (d *Deduplicator) Deduplicate(events []Event) ([]Event, []ScheduleChange) {
	kept := make(map[Fingerprint]Event, len(events))
	var fingerprints []Fingerprint
	var changes []ScheduleChange

	for _, ev := range events {
		fp := fingerprint(ev)
		current, exists := kept[fp]
		if !exists {
			kept[fp] = ev
			fingerprints = append(fingerprints, fp)
			continue
		}

		currentPriority := d.order.Priority(current.Source)
		newPriority := d.order.Priority(ev.Source)
		switch {
		case newPriority < currentPriority:
			// Lower tier never overwrites.
		case newPriority > currentPriority:
			kept[fp] = ev
		default:
			if !current.Record.ReleasedAt.Equal(ev.Record.ReleasedAt) {
				changes = append(changes, ScheduleChange{
					Indicator: ev.Record.Indicator,
					Country:   ev.Record.Country,
					Period:    ev.Record.Period,
					From:      current.Record.ReleasedAt,
					To:        ev.Record.ReleasedAt,
					Source:    ev.Source,
				})
			}
			kept[fp] = ev
		}
	}

	winners := make([]Event, 0, len(fingerprints))
	for _, fp := range fingerprints {
		winners = append(winners, kept[fp])
	}
	return winners, changes
}
