package tabular

import (
	"fmt"
	"strings"

	"elderly_care_monitor/internal/domain/reminder"
)

const (
	ColumnReminderType  = "Reminder Type"
	ColumnScheduledTime = "Scheduled Time"
	ColumnReminderSent  = "Reminder Sent (Yes/No)"
)

// RowError describes a data row that could not be imported. Line is the
// 1-based line in the file, counting the header and blank lines.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ReadReminders turns a daily reminder export into unsent reminders. Rows already
// marked as sent are skipped. Rows with an unknown type or an unreadable time are
// returned as RowErrors and left out.
func ReadReminders(t *Table) ([]*reminder.Reminder, []RowError, error) {
	cols := map[string]int{}
	var missing []string
	for _, name := range []string{ColumnUserID, ColumnReminderType, ColumnScheduledTime, ColumnReminderSent} {
		idx := t.Column(name)
		if idx < 0 {
			missing = append(missing, name)
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%s: missing columns %s", t.Name, strings.Join(missing, ", "))
	}

	var reminders []*reminder.Reminder
	var rowErrs []RowError
	for row := range t.Rows {
		line := t.Lines[row]
		if !strings.EqualFold(t.Cell(row, cols[ColumnReminderSent]), "no") {
			continue
		}
		userID := t.Cell(row, cols[ColumnUserID])
		if userID == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("empty user ID")})
			continue
		}
		typ, err := reminder.ParseType(t.Cell(row, cols[ColumnReminderType]))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		at, err := reminder.NormalizeScheduledTime(t.Cell(row, cols[ColumnScheduledTime]))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		reminders = append(reminders, &reminder.Reminder{UserID: userID, Type: typ, ScheduledTime: at})
	}
	return reminders, rowErrs, nil
}

// IsReminderExport reports whether t looks like a daily reminder export rather
// than a monitoring export.
func IsReminderExport(t *Table) bool {
	return t.Column(ColumnReminderType) >= 0 && t.Column(ColumnScheduledTime) >= 0
}
