package user

import (
	"context"
	"database/sql"
)

// Repository defines the operations for persisting and retrieving User entities.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	ListAll(ctx context.Context) ([]*User, error)
	SetCaregiverChat(ctx context.Context, id string, chatID sql.NullInt64) error
}
