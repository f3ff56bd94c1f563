package safety

import (
	"context"
	"time"
)

// AlertCount totals safety events per user.
type AlertCount struct {
	UserID    string
	Events    int
	Falls     int
	Aggregate int
}

// Repository defines the operations for persisting and retrieving safety events.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
	// CountAlertsByUser aggregates events recorded at or after since.
	CountAlertsByUser(ctx context.Context, since time.Time) ([]AlertCount, error)
}
