package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"elderly_care_monitor/internal/domain/mail"
	"elderly_care_monitor/internal/domain/reminder"
	domainTelegram "elderly_care_monitor/internal/domain/telegram"
	idb "elderly_care_monitor/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// ErrInvalidReminder wraps validation failures from AddReminder.
var ErrInvalidReminder = errors.New("invalid reminder")

// ErrNothingToAcknowledge is returned for a reminder that is unsent or already acknowledged.
var ErrNothingToAcknowledge = errors.New("reminder is not awaiting acknowledgement")

// AckReminderUnique identifies the inline "acknowledge" button on reminder messages.
const AckReminderUnique = "ack_reminder"

// DefaultRecentLimit is how many rows the "recent" listings return.
const DefaultRecentLimit = 5

// ReminderSettings are the tunables of the reminder service.
type ReminderSettings struct {
	DueWindow       time.Duration
	CaregiverChatID int64 // fallback chat when a user has none; 0 disables
	Retry           idb.RetryPolicy
	Location        *time.Location
	Now             func() time.Time // defaults to time.Now
}

// ProcessReport summarizes one due-reminder pass.
type ProcessReport struct {
	Checked        int // unsent reminders examined
	Due            int
	Sent           int // claimed by this pass
	AlreadySent    int // claimed by a concurrent pass
	ParseErrors    int
	MissingEmail   int
	NotifyFailures int
}

type ReminderService struct {
	reminderRepo reminder.Repository
	mailClient   mail.Client           // nil disables email
	chatClient   domainTelegram.Client // nil disables chat
	settings     ReminderSettings
	logger       *logrus.Entry
}

func NewReminderService(
	rr reminder.Repository,
	mc mail.Client,
	cc domainTelegram.Client,
	settings ReminderSettings,
	logger *logrus.Entry,
) *ReminderService {
	if settings.DueWindow <= 0 {
		settings.DueWindow = reminder.DefaultDueWindow
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &ReminderService{
		reminderRepo: rr,
		mailClient:   mc,
		chatClient:   cc,
		settings:     settings,
		logger:       logger,
	}
}

// AddReminder validates and stores a new unsent reminder.
func (s *ReminderService) AddReminder(ctx context.Context, userID, reminderType, scheduledTime string) (*reminder.Reminder, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidReminder)
	}
	typ, err := reminder.ParseType(reminderType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReminder, err)
	}
	normalized, err := reminder.NormalizeScheduledTime(scheduledTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReminder, err)
	}

	rem := &reminder.Reminder{UserID: userID, Type: typ, ScheduledTime: normalized}
	if err := s.reminderRepo.Create(ctx, rem); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"reminder_id": rem.ID,
		"user_id":     rem.UserID,
		"type":        rem.Type,
		"scheduled":   rem.ScheduledTime,
	}).Info("Reminder added")
	return rem, nil
}

// ImportReminders stores reminders read from an export in a single batch.
func (s *ReminderService) ImportReminders(ctx context.Context, reminders []*reminder.Reminder) error {
	if err := s.reminderRepo.BulkCreate(ctx, reminders); err != nil {
		return fmt.Errorf("failed to import reminders: %w", err)
	}
	s.logger.WithField("count", len(reminders)).Info("Reminders imported")
	return nil
}

// AcknowledgeReminder records the caregiver's confirmation of a sent reminder.
func (s *ReminderService) AcknowledgeReminder(ctx context.Context, id int64) (*reminder.Reminder, error) {
	ok, err := s.reminderRepo.Acknowledge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge reminder: %w", err)
	}
	rem, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return rem, ErrNothingToAcknowledge
	}
	s.logger.WithFields(logrus.Fields{"reminder_id": id, "user_id": rem.UserID}).Info("Reminder acknowledged")
	return rem, nil
}

func (s *ReminderService) RecentReminders(ctx context.Context, limit int) ([]*reminder.Reminder, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.reminderRepo.ListRecent(ctx, limit)
}

// ProcessDueReminders scans unsent reminders and handles the due ones.
// Each due reminder is claimed with an atomic mark-sent before anything is
// delivered, so overlapping passes notify at most once. A failed delivery does
// not un-claim the reminder.
func (s *ReminderService) ProcessDueReminders(ctx context.Context) (*ProcessReport, error) {
	now := s.settings.Now().In(s.settings.Location)

	var pending []*reminder.Pending
	err := s.settings.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		pending, err = s.reminderRepo.ListPending(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reminders: %w", err)
	}

	byID := make(map[int64]*reminder.Pending, len(pending))
	candidates := make([]reminder.Reminder, 0, len(pending))
	for _, p := range pending {
		byID[p.ID] = p
		candidates = append(candidates, p.Reminder)
	}

	result := reminder.Scan(now, candidates, reminder.ScanOptions{Window: s.settings.DueWindow, Notify: true})
	report := &ProcessReport{Checked: len(pending), Due: len(result.Due()), ParseErrors: len(result.Diagnostics)}

	for _, d := range result.Diagnostics {
		s.logger.WithFields(logrus.Fields{
			"reminder_id":    d.ReminderID,
			"scheduled_time": d.Raw,
		}).WithError(d.Err).Warn("Skipping reminder with unreadable scheduled time")
	}

	claimed := make(map[int64]bool)
	for _, action := range result.Actions {
		logCtx := s.logger.WithField("reminder_id", action.ReminderID)
		switch action.Kind {
		case reminder.ActionMarkSent:
			won, err := s.reminderRepo.MarkSent(ctx, action.ReminderID)
			if err != nil {
				logCtx.WithError(err).Error("Failed to mark reminder as sent")
				continue
			}
			if !won {
				logCtx.Debug("Reminder already claimed by another pass")
				report.AlreadySent++
				continue
			}
			claimed[action.ReminderID] = true
			report.Sent++
		case reminder.ActionNotify:
			if !claimed[action.ReminderID] {
				continue
			}
			s.notify(ctx, byID[action.ReminderID], now, report)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"checked":      report.Checked,
		"due":          report.Due,
		"sent":         report.Sent,
		"already_sent": report.AlreadySent,
		"parse_errors": report.ParseErrors,
	}).Info("Due reminder pass finished")
	return report, nil
}

func (s *ReminderService) notify(ctx context.Context, p *reminder.Pending, now time.Time, report *ProcessReport) {
	logCtx := s.logger.WithFields(logrus.Fields{"reminder_id": p.ID, "user_id": p.UserID})
	when := displayTime(p.ScheduledTime, now)

	if s.mailClient != nil {
		if !p.Email.Valid || strings.TrimSpace(p.Email.String) == "" {
			logCtx.Warn("No email for user, reminder email skipped")
			report.MissingEmail++
		} else if err := s.mailClient.Send(ctx, ReminderEmail(p.Email.String, p.Type, when)); err != nil {
			logCtx.WithError(err).Error("Failed to send reminder email")
			report.NotifyFailures++
		} else {
			logCtx.WithField("email", p.Email.String).Info("Reminder email sent")
		}
	}

	chatID := s.settings.CaregiverChatID
	if p.CaregiverChat.Valid {
		chatID = p.CaregiverChat.Int64
	}
	if s.chatClient != nil && chatID != 0 {
		name := p.UserID
		if p.UserFullName.Valid && p.UserFullName.String != "" {
			name = fmt.Sprintf("%s (%s)", p.UserFullName.String, p.UserID)
		}
		text := fmt.Sprintf("⏰ %s reminder for %s is due at %s.", p.Type, name, when)
		replyMarkup := &telebot.ReplyMarkup{}
		btnAck := replyMarkup.Data("✅ Acknowledge", AckReminderUnique, strconv.FormatInt(p.ID, 10))
		replyMarkup.Inline(replyMarkup.Row(btnAck))
		if err := s.chatClient.SendMessage(chatID, text, &telebot.SendOptions{ReplyMarkup: replyMarkup}); err != nil {
			logCtx.WithError(err).Error("Failed to send reminder chat message")
			report.NotifyFailures++
		}
	}
}

// ReminderEmail builds the message sent to a user for a due reminder.
func ReminderEmail(to string, typ reminder.Type, when string) mail.Message {
	return mail.Message{
		To:      to,
		Subject: fmt.Sprintf("Reminder: %s at %s", typ, when),
		Body:    fmt.Sprintf("Hi! Your %s reminder is due at %s. Stay safe!", typ, when),
	}
}

func displayTime(raw string, now time.Time) string {
	at, err := reminder.ParseScheduledTime(raw, now)
	if err != nil {
		return raw
	}
	return at.Format("2006-01-02 15:04")
}
