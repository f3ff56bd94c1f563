package telegram

import (
	"errors"
	"fmt"
	"strings"

	"elderly_care_monitor/internal/app"
	idb "elderly_care_monitor/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func (h *CaregiverBot) handleAddUser(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/add_user")
	handlerLogger.Info("Command received")

	args := c.Args()
	// Expected format: /add_user <ID> <email|-> [name]
	if len(args) < 2 {
		handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send("Invalid format. Use: /add_user <ID> <email|-> [name]")
	}
	userID, email := args[0], args[1]
	fullName := strings.Join(args[2:], " ")

	handlerLogger = handlerLogger.WithFields(logrus.Fields{"user_id": userID, "full_name": fullName})

	newUser, err := h.users.RegisterUser(h.ctx, userID, fullName, email)
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		switch {
		case errors.Is(err, app.ErrUserAlreadyExists):
			logWithError.Warn("User already exists")
			return c.Send(fmt.Sprintf("Error: user %s already exists.", userID))
		case errors.Is(err, app.ErrInvalidUser):
			logWithError.Warn("Invalid user data")
			return c.Send(fmt.Sprintf("Error: %s", err.Error()))
		default:
			logWithError.Error("Failed to add user")
			return c.Send(fmt.Sprintf("An error occurred while adding the user: %s", err.Error()))
		}
	}

	handlerLogger.Info("User added successfully")
	successMsg := fmt.Sprintf("User %s added.", newUser.ID)
	if newUser.FullName != "" {
		successMsg = fmt.Sprintf("User %s (%s) added.", newUser.FullName, newUser.ID)
	}
	if !newUser.Email.Valid {
		successMsg += " No email on file, reminders go to this chat only."
	}
	return c.Send(successMsg)
}

func (h *CaregiverBot) handleSetChat(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/set_chat")
	handlerLogger.Info("Command received")

	args := c.Args()
	// Expected format: /set_chat <ID> <chat_id|->
	if len(args) != 2 {
		handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send("Invalid format. Use: /set_chat <ID> <chat_id|->")
	}
	handlerLogger = handlerLogger.WithField("user_id", args[0])

	u, err := h.users.SetCaregiverChat(h.ctx, args[0], args[1])
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		switch {
		case errors.Is(err, idb.ErrUserNotFound):
			logWithError.Warn("User not found")
			return c.Send(fmt.Sprintf("Error: user %s not found.", args[0]))
		case errors.Is(err, app.ErrInvalidUser):
			logWithError.Warn("Invalid chat ID")
			return c.Send(fmt.Sprintf("Error: %s", err.Error()))
		default:
			logWithError.Error("Failed to set caregiver chat")
			return c.Send(fmt.Sprintf("An error occurred while updating the user: %s", err.Error()))
		}
	}

	if !u.CaregiverChatID.Valid {
		handlerLogger.Info("Caregiver chat cleared")
		return c.Send(fmt.Sprintf("Alerts for %s go to the default caregiver chat.", u.ID))
	}
	handlerLogger.WithField("chat_id", u.CaregiverChatID.Int64).Info("Caregiver chat set")
	return c.Send(fmt.Sprintf("Alerts for %s now go to chat %d.", u.ID, u.CaregiverChatID.Int64))
}

func (h *CaregiverBot) handleListUsers(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/users")

	users, err := h.users.ListUsers(h.ctx)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to get list of users")
		return c.Send(fmt.Sprintf("An error occurred while listing users: %s", err.Error()))
	}
	if len(users) == 0 {
		return c.Send("No users registered yet. Use /add_user to add one.")
	}
	handlerLogger.WithField("users_count", len(users)).Info("Successfully retrieved user list")

	var response strings.Builder
	response.WriteString("--- Monitored users ---\n")
	for _, u := range users {
		email := "-"
		if u.Email.Valid {
			email = u.Email.String
		}
		name := u.FullName
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(&response, "ID: %s, Name: %s, Email: %s", u.ID, name, email)
		if u.CaregiverChatID.Valid {
			fmt.Fprintf(&response, ", Chat: %d", u.CaregiverChatID.Int64)
		}
		response.WriteString("\n")
	}
	return c.Send(response.String())
}
