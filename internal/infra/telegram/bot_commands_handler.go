package telegram

import (
	"fmt"
	"strings"

	"elderly_care_monitor/internal/domain/reminder"

	"gopkg.in/telebot.v3"
)

func (h *CaregiverBot) handleStart(c telebot.Context) error {
	h.handlerLogger(c, "/start").Info("Processing /start command")
	return c.Send(fmt.Sprintf("Hello, %s! I watch vitals, safety events and reminders for the people in your care. Use /help for the list of commands.", c.Sender().FirstName))
}

func (h *CaregiverBot) handleHelp(c telebot.Context) error {
	h.handlerLogger(c, "/help").Info("Processing /help command")

	types := make([]string, 0, len(reminder.Types))
	for _, t := range reminder.Types {
		types = append(types, string(t))
	}

	var helpText strings.Builder
	helpText.WriteString("Available commands:\n\n")
	helpText.WriteString("`/add_user <ID> <email|-> [name]`\n - Register a monitored person.\n\n")
	helpText.WriteString("`/set_chat <ID> <chat_id|->`\n - Send this person's alerts and reminders to another chat, `-` for the default.\n\n")
	helpText.WriteString("`/users`\n - List monitored people.\n\n")
	fmt.Fprintf(&helpText, "`/remind <ID> <%s> <HH:MM | YYYY-MM-DD HH:MM>`\n - Schedule a reminder.\n\n", strings.Join(types, "|"))
	helpText.WriteString("`/reminders`\n - Show the latest reminders.\n\n")
	helpText.WriteString("`/vitals <ID> <HR> <SYS/DIA> <glucose> <SpO2>`\n - Record a health reading.\n\n")
	helpText.WriteString("`/health`\n - Show the latest health readings.\n\n")
	helpText.WriteString("`/safety <ID> <movement> <fall yes|no> <impact|-> <inactivity_s> <location>`\n - Record a safety event. Use `_` for spaces, e.g. `No_Movement`, `Living_Room`.\n\n")
	helpText.WriteString("`/events`\n - Show the latest safety events.\n\n")
	helpText.WriteString("`/summary`\n - Alert summary of the last 24 hours with care suggestions.\n\n")
	helpText.WriteString("Send a `.csv` or `.xlsx` monitoring export to get its alert summary, or a daily reminder export to import its pending reminders.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}
