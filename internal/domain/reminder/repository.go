package reminder

import "context"

// Repository defines the operations for persisting and retrieving reminders.
type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	BulkCreate(ctx context.Context, reminders []*Reminder) error // CSV imports
	GetByID(ctx context.Context, id int64) (*Reminder, error)
	ListPending(ctx context.Context) ([]*Pending, error)
	ListRecent(ctx context.Context, limit int) ([]*Reminder, error)

	// MarkSent flips sent from false to true. It reports false when the reminder
	// was already sent, which means another scan claimed it first.
	MarkSent(ctx context.Context, id int64) (bool, error)
	// Acknowledge records that the caregiver confirmed a sent reminder. It
	// reports false when there was nothing to acknowledge.
	Acknowledge(ctx context.Context, id int64) (bool, error)
}
