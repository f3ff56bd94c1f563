package user

import (
	"database/sql"
	"time"
)

// User is a monitored resident.
type User struct {
	ID              string // external identifier, e.g. "U1000"
	FullName        string
	Email           sql.NullString // reminder emails are skipped when unset
	CaregiverChatID sql.NullInt64  // overrides the default caregiver chat for alerts
	CreatedAt       time.Time
}
