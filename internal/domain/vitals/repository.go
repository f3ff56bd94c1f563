package vitals

import (
	"context"
	"time"
)

// AlertCount totals alerting readings per metric for one user.
type AlertCount struct {
	UserID        string
	Readings      int
	HeartRate     int
	BloodPressure int
	Glucose       int
	SpO2          int
	Aggregate     int
}

// Repository defines the operations for persisting and retrieving vitals records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
	// CountAlertsByUser aggregates readings taken at or after since. An empty
	// userIDs slice means every user.
	CountAlertsByUser(ctx context.Context, since time.Time, userIDs []string) ([]AlertCount, error)
}
