package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elderly_care_monitor/internal/domain/reminder"
)

// ErrReminderNotFound is returned when no reminder matches the given id.
var ErrReminderNotFound = errors.New("reminder not found")

const reminderColumns = `id, user_id, reminder_type, scheduled_time, sent, sent_at, acknowledged, created_at`

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func (r *PostgresReminderRepository) Create(ctx context.Context, rem *reminder.Reminder) error {
	query := `INSERT INTO reminders (user_id, reminder_type, scheduled_time, sent, acknowledged)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rem.UserID, rem.Type, rem.ScheduledTime, rem.Sent, rem.Acknowledged).
		Scan(&rem.ID, &rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating reminder: %w", err)
	}
	return nil
}

// BulkCreate inserts all reminders in one transaction; either every row is stored or none.
func (r *PostgresReminderRepository) BulkCreate(ctx context.Context, reminders []*reminder.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bulk create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO reminders (user_id, reminder_type, scheduled_time, sent, acknowledged)
                                         VALUES ($1, $2, $3, $4, $5)
                                         RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for bulk create: %w", err)
	}
	defer stmt.Close()

	for _, rem := range reminders {
		if err := stmt.QueryRowContext(ctx, rem.UserID, rem.Type, rem.ScheduledTime, rem.Sent, rem.Acknowledged).
			Scan(&rem.ID, &rem.CreatedAt); err != nil {
			return fmt.Errorf("error executing statement for bulk create (reminder for U:%s, T:%s): %w", rem.UserID, rem.Type, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk create: %w", err)
	}
	return nil
}

func (r *PostgresReminderRepository) GetByID(ctx context.Context, id int64) (*reminder.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`
	rem := reminder.Reminder{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rem.ID, &rem.UserID, &rem.Type, &rem.ScheduledTime,
		&rem.Sent, &rem.SentAt, &rem.Acknowledged, &rem.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("error getting reminder by ID: %w", err)
	}
	return &rem, nil
}

// ListPending returns unsent reminders with the owning user's contact details.
// Reminders for unknown users are still returned, with empty contact fields.
func (r *PostgresReminderRepository) ListPending(ctx context.Context) ([]*reminder.Pending, error) {
	query := `SELECT r.id, r.user_id, r.reminder_type, r.scheduled_time, r.sent, r.sent_at, r.acknowledged, r.created_at,
                      u.email, u.caregiver_chat_id, u.full_name
               FROM reminders r
               LEFT JOIN users u ON r.user_id = u.user_id
               WHERE r.sent = FALSE
               ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying pending reminders: %w", err)
	}
	defer rows.Close()

	pending := make([]*reminder.Pending, 0)
	for rows.Next() {
		p := reminder.Pending{}
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Type, &p.ScheduledTime, &p.Sent, &p.SentAt, &p.Acknowledged, &p.CreatedAt,
			&p.Email, &p.CaregiverChat, &p.UserFullName,
		); err != nil {
			return nil, fmt.Errorf("error scanning pending reminder row: %w", err)
		}
		pending = append(pending, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending reminder rows: %w", err)
	}
	return pending, nil
}

func (r *PostgresReminderRepository) ListRecent(ctx context.Context, limit int) ([]*reminder.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders ORDER BY id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]*reminder.Reminder, 0)
	for rows.Next() {
		rem := reminder.Reminder{}
		if err := rows.Scan(
			&rem.ID, &rem.UserID, &rem.Type, &rem.ScheduledTime,
			&rem.Sent, &rem.SentAt, &rem.Acknowledged, &rem.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		reminders = append(reminders, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return reminders, nil
}

// MarkSent is a single conditional update, so concurrent scans cannot both win.
func (r *PostgresReminderRepository) MarkSent(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET sent = TRUE, sent_at = NOW() WHERE id = $1 AND sent = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("error marking reminder %d as sent: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows for reminder %d: %w", id, err)
	}
	return n == 1, nil
}

// Acknowledge flips acknowledged for a sent reminder. It reports false when the
// reminder is unknown, not yet sent or already acknowledged.
func (r *PostgresReminderRepository) Acknowledge(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET acknowledged = TRUE WHERE id = $1 AND sent = TRUE AND acknowledged = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("error acknowledging reminder %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows for reminder %d: %w", id, err)
	}
	return n == 1, nil
}
