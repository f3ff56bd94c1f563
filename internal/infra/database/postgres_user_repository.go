package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elderly_care_monitor/internal/domain/user"

	"github.com/lib/pq"
)

// Custom errors
var ErrUserNotFound = errors.New("user not found")
var ErrDuplicateUser = errors.New("user with this ID already exists")

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const uniqueViolation = pq.ErrorCode("23505")

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (user_id, full_name, email, caregiver_chat_id)
               VALUES ($1, $2, $3, $4)
               RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, u.ID, u.FullName, u.Email, u.CaregiverChatID).Scan(&u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateUser
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT user_id, full_name, email, caregiver_chat_id, created_at
               FROM users WHERE user_id = $1`
	u := &user.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.FullName, &u.Email, &u.CaregiverChatID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

// SetCaregiverChat routes the user's alerts to chatID; a NULL chat falls back
// to the default caregiver.
func (r *PostgresUserRepository) SetCaregiverChat(ctx context.Context, id string, chatID sql.NullInt64) error {
	query := `UPDATE users SET caregiver_chat_id = $2 WHERE user_id = $1`
	result, err := r.db.ExecContext(ctx, query, id, chatID)
	if err != nil {
		return fmt.Errorf("error setting caregiver chat: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	query := `SELECT user_id, full_name, email, caregiver_chat_id, created_at
               FROM users ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.CaregiverChatID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
