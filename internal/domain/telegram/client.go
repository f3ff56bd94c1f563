package telegram

import "gopkg.in/telebot.v3"

// Client sends chat messages to caregivers via a Telegram bot.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
