package reminder

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Type is the kind of activity a reminder prompts for.
type Type string

const (
	TypeExercise    Type = "Exercise"
	TypeHydration   Type = "Hydration"
	TypeAppointment Type = "Appointment"
	TypeMedication  Type = "Medication"
)

// Types lists the reminder types offered to caregivers, in display order.
var Types = []Type{TypeExercise, TypeHydration, TypeAppointment, TypeMedication}

// ParseType matches s against the known types, ignoring case and surrounding space.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown reminder type %q", s)
}

// Reminder is a scheduled prompt for a monitored user.
// Corresponds to the 'reminders' table.
type Reminder struct {
	ID            int64
	UserID        string
	Type          Type
	ScheduledTime string // "15:04:05" or "2006-01-02 15:04:05", kept verbatim
	Sent          bool
	SentAt        sql.NullTime
	Acknowledged  bool
	CreatedAt     time.Time
}

// Pending is an unsent reminder joined with the contact data needed to deliver it.
type Pending struct {
	Reminder
	Email         sql.NullString
	CaregiverChat sql.NullInt64
	UserFullName  sql.NullString
}
