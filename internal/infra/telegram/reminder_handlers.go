package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"elderly_care_monitor/internal/app"
	idb "elderly_care_monitor/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func (h *CaregiverBot) handleRemind(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/remind")
	handlerLogger.Info("Command received")

	args := c.Args()
	// Expected format: /remind <ID> <Type> <HH:MM[:SS] | YYYY-MM-DD HH:MM[:SS]>
	if len(args) < 3 {
		handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send("Invalid format. Use: /remind <ID> <Type> <HH:MM | YYYY-MM-DD HH:MM>")
	}
	scheduled := strings.Join(args[2:], " ")

	rem, err := h.reminders.AddReminder(h.ctx, args[0], args[1], scheduled)
	if err != nil {
		if errors.Is(err, app.ErrInvalidReminder) {
			handlerLogger.WithError(err).Warn("Invalid reminder")
			return c.Send(fmt.Sprintf("Error: %s", err.Error()))
		}
		handlerLogger.WithError(err).Error("Failed to add reminder")
		return c.Send(fmt.Sprintf("An error occurred while adding the reminder: %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Reminder #%d added: %s for %s at %s.", rem.ID, rem.Type, rem.UserID, rem.ScheduledTime))
}

func (h *CaregiverBot) handleListReminders(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/reminders")

	reminders, err := h.reminders.RecentReminders(h.ctx, app.DefaultRecentLimit)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to list reminders")
		return c.Send(fmt.Sprintf("An error occurred while listing reminders: %s", err.Error()))
	}
	if len(reminders) == 0 {
		return c.Send("No reminders yet. Use /remind to add one.")
	}

	var response strings.Builder
	response.WriteString("--- Latest reminders ---\n")
	for _, r := range reminders {
		status := "pending"
		switch {
		case r.Acknowledged:
			status = "acknowledged"
		case r.Sent:
			status = "sent"
		}
		fmt.Fprintf(&response, "#%d %s: %s at %s (%s)\n", r.ID, r.UserID, r.Type, r.ScheduledTime, status)
	}
	return c.Send(response.String())
}

// handleAcknowledge answers the inline button attached to reminder notifications.
func (h *CaregiverBot) handleAcknowledge(c telebot.Context) error {
	data := c.Callback().Data
	handlerLogger := h.handlerLogger(c, "ack_reminder").WithField("callback_data", data)

	reminderID, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		handlerLogger.WithError(err).Warn("Invalid reminder ID in callback")
		return c.Respond(&telebot.CallbackResponse{Text: "Invalid reminder."})
	}
	handlerLogger = handlerLogger.WithField("reminder_id", reminderID)

	rem, err := h.reminders.AcknowledgeReminder(h.ctx, reminderID)
	switch {
	case errors.Is(err, app.ErrNothingToAcknowledge):
		handlerLogger.Info("Reminder already acknowledged")
		return c.Respond(&telebot.CallbackResponse{Text: "Already acknowledged."})
	case errors.Is(err, idb.ErrReminderNotFound):
		handlerLogger.Warn("Reminder to acknowledge not found")
		return c.Respond(&telebot.CallbackResponse{Text: "Reminder not found."})
	case err != nil:
		handlerLogger.WithError(err).Error("Failed to acknowledge reminder")
		return c.Respond(&telebot.CallbackResponse{Text: "An error occurred."})
	}

	handlerLogger.WithFields(logrus.Fields{"user_id": rem.UserID}).Info("Reminder acknowledged via button")
	if err := c.Respond(&telebot.CallbackResponse{Text: "Acknowledged!"}); err != nil {
		return err
	}
	if msg := c.Message(); msg != nil {
		return c.Edit(msg.Text + "\n✅ Acknowledged")
	}
	return nil
}
