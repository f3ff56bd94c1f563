package reminder

import (
	"fmt"
	"time"
)

// DefaultDueWindow is the tolerance applied when no window is configured.
const DefaultDueWindow = 300 * time.Second

// ActionKind is what a caller should do with a due reminder.
type ActionKind string

const (
	ActionMarkSent ActionKind = "mark_sent"
	ActionNotify   ActionKind = "notify"
)

// Action is one instruction emitted by Scan for a single reminder.
type Action struct {
	ReminderID int64
	Kind       ActionKind
}

// ParseError reports a reminder whose scheduled time could not be read.
type ParseError struct {
	ReminderID int64
	Raw        string
	Err        error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("reminder %d: %v", e.ReminderID, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// ScanOptions tunes a scan. A zero Window means DefaultDueWindow.
type ScanOptions struct {
	Window time.Duration
	Notify bool // emit ActionNotify alongside ActionMarkSent
}

// ScanResult holds the actions for due reminders and per-item parse diagnostics.
type ScanResult struct {
	Actions     []Action
	Diagnostics []ParseError
}

// Due returns the ids of reminders that received an ActionMarkSent, in scan order.
func (r ScanResult) Due() []int64 {
	ids := make([]int64, 0, len(r.Actions))
	for _, a := range r.Actions {
		if a.Kind == ActionMarkSent {
			ids = append(ids, a.ReminderID)
		}
	}
	return ids
}

// Scan decides which of the supplied reminders are due at now. A reminder is due
// when its scheduled time lies within [now-window, now+window]. Sent reminders are
// ignored, so applying the emitted mark_sent actions makes a repeated scan a no-op.
func Scan(now time.Time, reminders []Reminder, opts ScanOptions) ScanResult {
	window := opts.Window
	if window <= 0 {
		window = DefaultDueWindow
	}

	var res ScanResult
	for _, r := range reminders {
		if r.Sent {
			continue
		}
		at, err := ParseScheduledTime(r.ScheduledTime, now)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, ParseError{ReminderID: r.ID, Raw: r.ScheduledTime, Err: err})
			continue
		}
		if !IsDue(at, now, window) {
			continue
		}
		res.Actions = append(res.Actions, Action{ReminderID: r.ID, Kind: ActionMarkSent})
		if opts.Notify {
			res.Actions = append(res.Actions, Action{ReminderID: r.ID, Kind: ActionNotify})
		}
	}
	return res
}

// IsDue reports whether scheduled is within window of now, bounds inclusive.
func IsDue(scheduled, now time.Time, window time.Duration) bool {
	diff := scheduled.Sub(now)
	return diff >= -window && diff <= window
}
