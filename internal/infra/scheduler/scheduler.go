package scheduler

import (
	"context"
	"fmt"
	"time"

	"elderly_care_monitor/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job timeouts.
const (
	reminderJobTimeout = 1 * time.Minute
	digestJobTimeout   = 5 * time.Minute // the model call may be slow
)

// ReminderProcessor runs one due-reminder pass.
type ReminderProcessor interface {
	ProcessDueReminders(ctx context.Context) (*app.ProcessReport, error)
}

// DigestSender sends the daily caregiver digest.
type DigestSender interface {
	DailyDigest(ctx context.Context) error
}

type MonitorScheduler struct {
	cronEngine          *cron.Cron
	reminders           ReminderProcessor
	digest              DigestSender // nil disables the digest job
	logger              *logrus.Entry
	cronSpecReminders   string
	cronSpecDailyDigest string
}

func NewMonitorScheduler(
	reminders ReminderProcessor,
	digest DigestSender,
	location *time.Location,
	logger *logrus.Entry,
	cronSpecReminders string, // e.g., "*/1 * * * *" (every minute)
	cronSpecDailyDigest string, // e.g., "0 20 * * *" (8 PM daily)
) *MonitorScheduler {
	if location == nil {
		location = time.Local
	}
	cronLogger := cronLogAdapter{logger}
	return &MonitorScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		reminders:           reminders,
		digest:              digest,
		logger:              logger,
		cronSpecReminders:   cronSpecReminders,
		cronSpecDailyDigest: cronSpecDailyDigest,
	}
}

// Start registers the jobs and starts the cron engine. It fails on an invalid
// cron spec without starting anything.
func (s *MonitorScheduler) Start() error {
	s.logger.Info("Starting monitor scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecReminders, s.runReminderCheck); err != nil {
		return fmt.Errorf("could not add reminder check cron job %q: %w", s.cronSpecReminders, err)
	}

	if s.digest != nil {
		if _, err := s.cronEngine.AddFunc(s.cronSpecDailyDigest, s.runDailyDigest); err != nil {
			return fmt.Errorf("could not add daily digest cron job %q: %w", s.cronSpecDailyDigest, err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Monitor scheduler started with jobs.")
	return nil
}

func (s *MonitorScheduler) runReminderCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
	defer cancel()

	report, err := s.reminders.ProcessDueReminders(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during due reminder processing")
		return
	}
	if report.Due > 0 {
		s.logger.WithFields(logrus.Fields{"due": report.Due, "sent": report.Sent}).Info("Reminder check handled due reminders")
	}
}

func (s *MonitorScheduler) runDailyDigest() {
	s.logger.Info("Cron job triggered for daily digest.")
	ctx, cancel := context.WithTimeout(context.Background(), digestJobTimeout)
	defer cancel()
	if err := s.digest.DailyDigest(ctx); err != nil {
		s.logger.WithError(err).Error("Error during daily digest")
	}
}

func (s *MonitorScheduler) Stop() {
	s.logger.Info("Stopping monitor scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Monitor scheduler gracefully stopped.")
}

// cronLogAdapter routes cron's own logging (including recovered panics) to logrus.
type cronLogAdapter struct {
	entry *logrus.Entry
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.entry.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
