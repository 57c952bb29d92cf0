package feeds

import "time"

// ScheduleStatus tracks how firmly a release's publication time is known.
type ScheduleStatus int

// Schedule statuses, in order of increasing certainty.
const (
	Unscheduled ScheduleStatus = iota
	Scheduled
	TimeConfirmed
)

// String returns the status name.
func (s ScheduleStatus) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case TimeConfirmed:
		return "time-confirmed"
	default:
		return "unscheduled"
	}
}

// scheduleEntry is the tracked state for one fingerprint.
type scheduleEntry struct {
	status ScheduleStatus
	at     time.Time
}

// Tracker maintains the schedule state machine for calendar-style feeds:
//
//	unscheduled → scheduled → time-confirmed
//
// A feed moving an already-scheduled event's timestamp transitions it back
// to scheduled and reports the move, rather than updating silently.
type Tracker struct {
	entries map[Fingerprint]scheduleEntry
}

// NewTracker creates an empty schedule tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[Fingerprint]scheduleEntry)}
}

// Observe feeds one event through the state machine and returns the
// resulting status plus a ScheduleChange when a known event's timestamp
// moved.
func (t *Tracker) Observe(ev Event) (ScheduleStatus, *ScheduleChange) {
	fp := fingerprint(ev)
	at := ev.Record.ReleasedAt.UTC().Truncate(time.Second)

	entry, known := t.entries[fp]
	switch {
	case !known:
		entry = scheduleEntry{status: Scheduled, at: at}
		if ev.Confirmed {
			entry.status = TimeConfirmed
		}
		t.entries[fp] = entry
		return entry.status, nil

	case !entry.at.Equal(at):
		change := &ScheduleChange{
			Indicator: ev.Record.Indicator,
			Country:   ev.Record.Country,
			Period:    ev.Record.Period,
			From:      entry.at,
			To:        at,
			Source:    ev.Source,
		}
		t.entries[fp] = scheduleEntry{status: Scheduled, at: at}
		return Scheduled, change

	case ev.Confirmed && entry.status == Scheduled:
		entry.status = TimeConfirmed
		t.entries[fp] = entry
		return TimeConfirmed, nil

	default:
		return entry.status, nil
	}
}

// Status returns the tracked status for an event's fingerprint.
func (t *Tracker) Status(ev Event) ScheduleStatus {
	if entry, ok := t.entries[fingerprint(ev)]; ok {
		return entry.status
	}
	return Unscheduled
}
