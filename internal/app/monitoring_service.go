package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"elderly_care_monitor/internal/domain/safety"
	domainTelegram "elderly_care_monitor/internal/domain/telegram"
	"elderly_care_monitor/internal/domain/user"
	"elderly_care_monitor/internal/domain/vitals"
	idb "elderly_care_monitor/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// ErrInvalidEvent wraps safety event validation failures.
var ErrInvalidEvent = errors.New("invalid safety event")

// MonitoringService records vitals and safety events and alerts the caregiver
// when a record trips the alert rules.
type MonitoringService struct {
	vitalsRepo      vitals.Repository
	safetyRepo      safety.Repository
	userRepo        user.Repository
	chatClient      domainTelegram.Client // nil disables alerts
	caregiverChatID int64
	now             func() time.Time
	logger          *logrus.Entry
}

func NewMonitoringService(
	vr vitals.Repository,
	sr safety.Repository,
	ur user.Repository,
	cc domainTelegram.Client,
	caregiverChatID int64,
	logger *logrus.Entry,
) *MonitoringService {
	return &MonitoringService{
		vitalsRepo:      vr,
		safetyRepo:      sr,
		userRepo:        ur,
		chatClient:      cc,
		caregiverChatID: caregiverChatID,
		now:             time.Now,
		logger:          logger,
	}
}

// RecordVitals evaluates and stores a reading. A zero timestamp means now.
func (s *MonitoringService) RecordVitals(ctx context.Context, reading vitals.Reading) (*vitals.Record, error) {
	if strings.TrimSpace(reading.UserID) == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = s.now()
	}

	rec := &vitals.Record{Reading: reading, Flags: vitals.Evaluate(reading)}
	if err := s.vitalsRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store health reading: %w", err)
	}

	logCtx := s.logger.WithFields(logrus.Fields{"record_id": rec.ID, "user_id": rec.UserID})
	if !rec.Flags.Aggregate {
		logCtx.Debug("Health reading stored, no alert")
		return rec, nil
	}

	tripped := rec.Flags.Tripped()
	logCtx.WithField("tripped", tripped).Warn("Health reading raised an alert")
	text := fmt.Sprintf("🚨 Health alert for %s: %s out of range (HR %d, BP %s, glucose %d, SpO2 %d%%).",
		rec.UserID, strings.Join(tripped, ", "),
		rec.HeartRate, rec.BloodPressure, rec.Glucose, rec.SpO2)
	s.alertCaregiver(ctx, rec.UserID, text, logCtx)
	return rec, nil
}

// RecordSafetyEvent validates, evaluates and stores an event. A zero timestamp means now.
func (s *MonitoringService) RecordSafetyEvent(ctx context.Context, ev safety.Event) (*safety.Record, error) {
	if strings.TrimSpace(ev.UserID) == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidEvent)
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}

	rec := &safety.Record{Event: ev, Flags: safety.Evaluate(ev)}
	if err := s.safetyRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store safety event: %w", err)
	}

	logCtx := s.logger.WithFields(logrus.Fields{"record_id": rec.ID, "user_id": rec.UserID})
	if !rec.Flags.Aggregate {
		logCtx.Debug("Safety event stored, no alert")
		return rec, nil
	}

	logCtx.WithField("inactivity_s", rec.InactivityDuration).Warn("Safety event raised an alert")
	impact := string(rec.ImpactForce)
	if impact == "" {
		impact = "unknown"
	}
	text := fmt.Sprintf("🚨 Fall detected for %s in the %s (impact: %s), inactive for %ds.",
		rec.UserID, strings.ToLower(string(rec.Location)), impact, rec.InactivityDuration)
	s.alertCaregiver(ctx, rec.UserID, text, logCtx)
	return rec, nil
}

func (s *MonitoringService) RecentVitals(ctx context.Context, limit int) ([]*vitals.Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.vitalsRepo.ListRecent(ctx, limit)
}

func (s *MonitoringService) RecentSafetyEvents(ctx context.Context, limit int) ([]*safety.Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.safetyRepo.ListRecent(ctx, limit)
}

// alertCaregiver sends text to the user's own caregiver chat if one is set,
// otherwise to the default caregiver. Delivery failures are logged only; the
// record is already stored.
func (s *MonitoringService) alertCaregiver(ctx context.Context, userID, text string, logCtx *logrus.Entry) {
	if s.chatClient == nil {
		return
	}
	chatID := s.caregiverChatID
	u, err := s.userRepo.GetByID(ctx, userID)
	switch {
	case err == nil:
		if u.CaregiverChatID.Valid {
			chatID = u.CaregiverChatID.Int64
		}
	case errors.Is(err, idb.ErrUserNotFound):
		logCtx.Debug("Alert for unregistered user, using default caregiver")
	default:
		logCtx.WithError(err).Warn("Could not look up user for alert routing, using default caregiver")
	}
	if chatID == 0 {
		logCtx.Warn("No caregiver chat configured, alert not delivered")
		return
	}
	if err := s.chatClient.SendMessage(chatID, text, nil); err != nil {
		logCtx.WithError(err).Error("Failed to deliver caregiver alert")
	}
}
