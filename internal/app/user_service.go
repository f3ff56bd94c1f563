package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	netmail "net/mail"
	"strconv"
	"strings"

	"elderly_care_monitor/internal/domain/user"
	idb "elderly_care_monitor/internal/infra/database"
)

// Application-level errors for user registration
var ErrUserAlreadyExists = errors.New("user with this ID already exists")
var ErrInvalidUser = errors.New("invalid user")

type UserService struct {
	userRepo user.Repository
}

func NewUserService(ur user.Repository) *UserService {
	return &UserService{userRepo: ur}
}

// RegisterUser adds a monitored user. An empty email means reminder emails are
// not sent for this user.
func (s *UserService) RegisterUser(ctx context.Context, id, fullName, email string) (*user.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidUser)
	}

	var emailValue sql.NullString
	if email = strings.TrimSpace(email); email != "" && email != "-" {
		addr, err := netmail.ParseAddress(email)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidUser, email)
		}
		emailValue = sql.NullString{String: addr.Address, Valid: true}
	}

	_, err := s.userRepo.GetByID(ctx, id)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, idb.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	newUser := &user.User{
		ID:       id,
		FullName: strings.TrimSpace(fullName),
		Email:    emailValue,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, idb.ErrDuplicateUser) { // lost a race with another registration
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}
	return newUser, nil
}

// SetCaregiverChat sends the user's alerts and reminders to a dedicated chat.
// "-" clears it so the default caregiver chat is used again.
func (s *UserService) SetCaregiverChat(ctx context.Context, id, chat string) (*user.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidUser)
	}

	var chatID sql.NullInt64
	if chat = strings.TrimSpace(chat); chat != "-" {
		v, err := strconv.ParseInt(chat, 10, 64)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("%w: invalid chat ID %q", ErrInvalidUser, chat)
		}
		chatID = sql.NullInt64{Int64: v, Valid: true}
	}

	if err := s.userRepo.SetCaregiverChat(ctx, id, chatID); err != nil {
		return nil, fmt.Errorf("failed to set caregiver chat: %w", err)
	}
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
