package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"elderly_care_monitor/internal/domain/llm"
	"elderly_care_monitor/internal/domain/safety"
	"elderly_care_monitor/internal/domain/summary"
	domainTelegram "elderly_care_monitor/internal/domain/telegram"
	"elderly_care_monitor/internal/domain/vitals"

	"github.com/sirupsen/logrus"
)

// ErrLLMDisabled is returned alongside the raw summary when no model is configured.
var ErrLLMDisabled = errors.New("care suggestions are disabled, no language model configured")

// DigestPeriod is the look-back of the daily caregiver digest.
const DigestPeriod = 24 * time.Hour

// SummaryReport is an alert summary and, if a model answered, its suggestions.
type SummaryReport struct {
	Summary     summary.Summary
	Suggestions string
}

// Format renders the report as a chat message.
func (r *SummaryReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Health summary (%s, %d records)\n", r.Summary.Source, r.Summary.Rows)
	if len(r.Summary.Columns) == 0 {
		b.WriteString("No alert columns found.\n")
	}
	b.WriteString(r.Summary.Text())
	if len(r.Summary.ByUser) > 0 {
		b.WriteString("\nAlerts per user:\n")
		for _, c := range r.Summary.ByUser {
			fmt.Fprintf(&b, "%s: %d\n", c.Label, c.Alerts)
		}
	}
	if r.Suggestions != "" {
		b.WriteString("\n🤖 Proactive Care Suggestions:\n")
		b.WriteString(r.Suggestions)
		b.WriteString("\n")
	}
	return b.String()
}

type SummaryService struct {
	vitalsRepo      vitals.Repository
	safetyRepo      safety.Repository
	llmClient       llm.Client            // nil disables suggestions
	chatClient      domainTelegram.Client // nil disables the digest
	caregiverChatID int64
	now             func() time.Time
	logger          *logrus.Entry
}

func NewSummaryService(
	vr vitals.Repository,
	sr safety.Repository,
	lc llm.Client,
	cc domainTelegram.Client,
	caregiverChatID int64,
	logger *logrus.Entry,
) *SummaryService {
	return &SummaryService{
		vitalsRepo:      vr,
		safetyRepo:      sr,
		llmClient:       lc,
		chatClient:      cc,
		caregiverChatID: caregiverChatID,
		now:             time.Now,
		logger:          logger,
	}
}

// Summarize asks the model for caregiver suggestions on s. The returned report
// always carries the summary, even when the error is non-nil.
func (s *SummaryService) Summarize(ctx context.Context, sum summary.Summary) (*SummaryReport, error) {
	report := &SummaryReport{Summary: sum}
	if s.llmClient == nil {
		return report, ErrLLMDisabled
	}

	answer, err := s.llmClient.Complete(ctx, summary.Prompt(sum))
	if err != nil {
		return report, fmt.Errorf("failed to get care suggestions: %w", err)
	}
	report.Suggestions = answer
	return report, nil
}

// SummarizeStore summarizes the health readings and safety events stored since
// the given time.
func (s *SummaryService) SummarizeStore(ctx context.Context, since time.Time) (*SummaryReport, error) {
	vitalsCounts, err := s.vitalsRepo.CountAlertsByUser(ctx, since, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	safetyCounts, err := s.safetyRepo.CountAlertsByUser(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count safety alerts: %w", err)
	}
	return s.Summarize(ctx, StoreSummary(vitalsCounts, safetyCounts, since))
}

// DailyDigest sends the last day's summary to the caregiver chat. Model
// failures degrade to the raw summary.
func (s *SummaryService) DailyDigest(ctx context.Context) error {
	if s.chatClient == nil || s.caregiverChatID == 0 {
		s.logger.Debug("No caregiver chat configured, daily digest skipped")
		return nil
	}

	report, err := s.SummarizeStore(ctx, s.now().Add(-DigestPeriod))
	if report == nil {
		return err
	}
	if err != nil && !errors.Is(err, ErrLLMDisabled) {
		s.logger.WithError(err).Warn("Sending daily digest without care suggestions")
	}

	if err := s.chatClient.SendMessage(s.caregiverChatID, report.Format(), nil); err != nil {
		return fmt.Errorf("failed to send daily digest: %w", err)
	}
	s.logger.WithField("records", report.Summary.Rows).Info("Daily digest sent")
	return nil
}

// StoreSummary folds per-user alert counts into a summary shaped like the
// monitoring and safety export summaries. Alert Triggered and the per-user
// totals cover both health readings and safety events.
func StoreSummary(vitalsCounts []vitals.AlertCount, safetyCounts []safety.AlertCount, since time.Time) summary.Summary {
	s := summary.Summary{Source: "readings and safety events since " + since.Format("2006-01-02 15:04")}
	byUser := map[string]int{}
	var hr, bp, glucose, spo2, falls, aggregate int
	for _, c := range vitalsCounts {
		s.Rows += c.Readings
		hr += c.HeartRate
		bp += c.BloodPressure
		glucose += c.Glucose
		spo2 += c.SpO2
		aggregate += c.Aggregate
		byUser[c.UserID] += c.Aggregate
	}
	for _, c := range safetyCounts {
		s.Rows += c.Events
		falls += c.Falls
		aggregate += c.Aggregate
		byUser[c.UserID] += c.Aggregate
	}
	s.Columns = []summary.Count{
		{Label: "Heart Rate Below/Above Threshold (Yes/No)", Alerts: hr},
		{Label: "Blood Pressure Below/Above Threshold (Yes/No)", Alerts: bp},
		{Label: "Glucose Levels Below/Above Threshold (Yes/No)", Alerts: glucose},
		{Label: "SpO2 Below Threshold (Yes/No)", Alerts: spo2},
		{Label: "Fall Detected (Yes/No)", Alerts: falls},
		{Label: "Alert Triggered (Yes/No)", Alerts: aggregate},
	}
	for id, n := range byUser {
		s.ByUser = append(s.ByUser, summary.Count{Label: id, Alerts: n})
	}
	sort.Slice(s.ByUser, func(i, j int) bool { return s.ByUser[i].Label < s.ByUser[j].Label })
	return s
}
