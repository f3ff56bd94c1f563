package telegram

import (
	"context"
	"io"
	"time"

	"elderly_care_monitor/internal/app"
	"elderly_care_monitor/internal/domain/reminder"
	"elderly_care_monitor/internal/domain/safety"
	"elderly_care_monitor/internal/domain/summary"
	"elderly_care_monitor/internal/domain/user"
	"elderly_care_monitor/internal/domain/vitals"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

// Service dependencies of the caregiver bot, satisfied by the app services.
type (
	UserRegistry interface {
		RegisterUser(ctx context.Context, id, fullName, email string) (*user.User, error)
		SetCaregiverChat(ctx context.Context, id, chat string) (*user.User, error)
		ListUsers(ctx context.Context) ([]*user.User, error)
	}

	ReminderManager interface {
		AddReminder(ctx context.Context, userID, reminderType, scheduledTime string) (*reminder.Reminder, error)
		ImportReminders(ctx context.Context, reminders []*reminder.Reminder) error
		RecentReminders(ctx context.Context, limit int) ([]*reminder.Reminder, error)
		AcknowledgeReminder(ctx context.Context, id int64) (*reminder.Reminder, error)
	}

	Monitor interface {
		RecordVitals(ctx context.Context, reading vitals.Reading) (*vitals.Record, error)
		RecordSafetyEvent(ctx context.Context, ev safety.Event) (*safety.Record, error)
		RecentVitals(ctx context.Context, limit int) ([]*vitals.Record, error)
		RecentSafetyEvents(ctx context.Context, limit int) ([]*safety.Record, error)
	}

	Summarizer interface {
		Summarize(ctx context.Context, sum summary.Summary) (*app.SummaryReport, error)
		SummarizeStore(ctx context.Context, since time.Time) (*app.SummaryReport, error)
	}
)

// maxUploadSize caps exports accepted as documents.
const maxUploadSize = 10 << 20

const unauthorizedText = "Error: you are not allowed to use this bot."

// CaregiverBot holds the command handlers of the caregiver chat.
type CaregiverBot struct {
	ctx       context.Context
	users     UserRegistry
	reminders ReminderManager
	monitor   Monitor
	summaries Summarizer
	fetchFile func(*telebot.File) (io.ReadCloser, error)
	now       func() time.Time
	logger    *logrus.Entry
}

func NewCaregiverBot(
	ctx context.Context,
	users UserRegistry,
	reminders ReminderManager,
	monitor Monitor,
	summaries Summarizer,
	logger *logrus.Entry,
) *CaregiverBot {
	return &CaregiverBot{
		ctx:       ctx,
		users:     users,
		reminders: reminders,
		monitor:   monitor,
		summaries: summaries,
		now:       time.Now,
		logger:    logger,
	}
}

// Register installs the caregiver-only middleware and every handler on b.
func (h *CaregiverBot) Register(b *telebot.Bot, caregiverTelegramID int64) {
	h.fetchFile = b.File
	b.Use(h.restrict(caregiverTelegramID))

	b.Handle("/start", h.handleStart)
	b.Handle("/help", h.handleHelp)

	b.Handle("/add_user", h.handleAddUser)
	b.Handle("/set_chat", h.handleSetChat)
	b.Handle("/users", h.handleListUsers)

	b.Handle("/remind", h.handleRemind)
	b.Handle("/reminders", h.handleListReminders)
	b.Handle(&telebot.Btn{Unique: app.AckReminderUnique}, h.handleAcknowledge)

	b.Handle("/vitals", h.handleVitals)
	b.Handle("/health", h.handleListVitals)
	b.Handle("/safety", h.handleSafety)
	b.Handle("/events", h.handleListEvents)

	b.Handle("/summary", h.handleSummary)
	b.Handle(telebot.OnDocument, h.handleDocument)

	h.logger.WithField("caregiver_id", caregiverTelegramID).Info("Caregiver bot handlers registered")
}

// restrict lets only the caregiver through. Restrict keeps In in a config shared
// by every handler it wraps, so each handler gets its own config.
func (h *CaregiverBot) restrict(caregiverTelegramID int64) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return middleware.Restrict(middleware.RestrictConfig{
			Chats: []int64{caregiverTelegramID},
			In:    next,
			Out:   h.rejectUnauthorized,
		})(next)
	}
}

func (h *CaregiverBot) rejectUnauthorized(c telebot.Context) error {
	h.logger.WithFields(logrus.Fields{
		"sender_id": c.Sender().ID,
		"text":      c.Text(),
	}).Warn("Unauthorized access attempt")
	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: unauthorizedText})
	}
	return c.Send(unauthorizedText)
}

// handlerLogger mirrors the per-command log context used by every handler.
func (h *CaregiverBot) handlerLogger(c telebot.Context, handler string) *logrus.Entry {
	fields := logrus.Fields{"handler": handler}
	if c.Sender() != nil {
		fields["sender_id"] = c.Sender().ID
	}
	return h.logger.WithFields(fields)
}
