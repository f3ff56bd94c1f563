package telegram

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"elderly_care_monitor/internal/app"
	"elderly_care_monitor/internal/infra/tabular"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// maxRowErrorsShown limits how many rejected rows an import reply lists.
const maxRowErrorsShown = 5

func (h *CaregiverBot) handleSummary(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/summary")
	handlerLogger.Info("Command received")

	report, err := h.summaries.SummarizeStore(h.ctx, h.now().Add(-app.DigestPeriod))
	return h.sendReport(c, handlerLogger, report, err)
}

// sendReport replies with the summary and whatever suggestions are available.
func (h *CaregiverBot) sendReport(c telebot.Context, handlerLogger *logrus.Entry, report *app.SummaryReport, err error) error {
	if report == nil {
		handlerLogger.WithError(err).Error("Failed to build summary")
		return c.Send(fmt.Sprintf("An error occurred while building the summary: %s", err.Error()))
	}
	text := report.Format()
	switch {
	case err == nil:
	case errors.Is(err, app.ErrLLMDisabled):
		handlerLogger.Debug("Care suggestions disabled")
	default:
		handlerLogger.WithError(err).Warn("Care suggestions unavailable")
		text += "\n(Care suggestions are unavailable right now.)"
	}
	return c.Send(text)
}

func (h *CaregiverBot) handleDocument(c telebot.Context) error {
	doc := c.Message().Document
	handlerLogger := h.handlerLogger(c, "document").WithFields(logrus.Fields{
		"file_name": doc.FileName,
		"file_size": doc.FileSize,
	})
	handlerLogger.Info("Document received")

	if doc.FileSize > maxUploadSize {
		return c.Send(fmt.Sprintf("Error: file is too large, the limit is %d MB.", maxUploadSize>>20))
	}

	rc, err := h.fetchFile(&doc.File)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to download document")
		return c.Send("An error occurred while downloading the file.")
	}
	defer rc.Close()

	table, err := tabular.Read(doc.FileName, io.LimitReader(rc, maxUploadSize))
	if err != nil {
		handlerLogger.WithError(err).Warn("Unreadable document")
		return c.Send(fmt.Sprintf("Error: %s", err.Error()))
	}

	if tabular.IsReminderExport(table) {
		return h.importReminders(c, handlerLogger, table)
	}
	report, err := h.summaries.Summarize(h.ctx, tabular.AlertCounts(table))
	return h.sendReport(c, handlerLogger, report, err)
}

func (h *CaregiverBot) importReminders(c telebot.Context, handlerLogger *logrus.Entry, table *tabular.Table) error {
	reminders, rowErrs, err := tabular.ReadReminders(table)
	if err != nil {
		handlerLogger.WithError(err).Warn("Invalid reminder export")
		return c.Send(fmt.Sprintf("Error: %s", err.Error()))
	}
	for _, re := range rowErrs {
		handlerLogger.WithField("line", re.Line).WithError(re.Err).Warn("Skipping reminder row")
	}

	if len(reminders) > 0 {
		if err := h.reminders.ImportReminders(h.ctx, reminders); err != nil {
			handlerLogger.WithError(err).Error("Failed to import reminders")
			return c.Send(fmt.Sprintf("An error occurred while importing reminders: %s", err.Error()))
		}
	}

	var response strings.Builder
	fmt.Fprintf(&response, "Imported %d pending reminder(s) from %s.", len(reminders), table.Name)
	if len(rowErrs) > 0 {
		fmt.Fprintf(&response, "\nSkipped %d row(s):\n", len(rowErrs))
		for i, re := range rowErrs {
			if i == maxRowErrorsShown {
				fmt.Fprintf(&response, "... and %d more\n", len(rowErrs)-maxRowErrorsShown)
				break
			}
			response.WriteString(re.Error() + "\n")
		}
	}
	return c.Send(response.String())
}
