package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"elderly_care_monitor/internal/app"
	"elderly_care_monitor/internal/domain/safety"
	"elderly_care_monitor/internal/domain/vitals"

	"gopkg.in/telebot.v3"
)

const vitalsUsage = "Invalid format. Use: /vitals <ID> <HR> <SYS/DIA> <glucose> <SpO2>"

const safetyUsage = "Invalid format. Use: /safety <ID> <movement> <fall yes|no> <impact|-> <inactivity_s> <location>"

func (h *CaregiverBot) handleVitals(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/vitals")
	handlerLogger.Info("Command received")

	args := c.Args()
	if len(args) != 5 {
		handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send(vitalsUsage)
	}

	reading, err := parseReading(args)
	if err != nil {
		handlerLogger.WithError(err).Warn("Invalid reading")
		return c.Send(fmt.Sprintf("Error: %s\n%s", err.Error(), vitalsUsage))
	}

	rec, err := h.monitor.RecordVitals(h.ctx, reading)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to record vitals")
		return c.Send(fmt.Sprintf("An error occurred while recording the reading: %s", err.Error()))
	}

	if rec.Flags.Aggregate {
		return c.Send(fmt.Sprintf("Reading #%d stored. 🚨 Alert: %s out of range.", rec.ID, strings.Join(rec.Flags.Tripped(), ", ")))
	}
	return c.Send(fmt.Sprintf("Reading #%d stored. All values within range.", rec.ID))
}

func parseReading(args []string) (vitals.Reading, error) {
	hr, err := strconv.Atoi(args[1])
	if err != nil {
		return vitals.Reading{}, fmt.Errorf("heart rate must be a number")
	}
	bp, err := vitals.ParseBloodPressure(args[2])
	if err != nil {
		return vitals.Reading{}, err
	}
	glucose, err := strconv.Atoi(args[3])
	if err != nil {
		return vitals.Reading{}, fmt.Errorf("glucose must be a number")
	}
	spo2, err := strconv.Atoi(strings.TrimSuffix(args[4], "%"))
	if err != nil {
		return vitals.Reading{}, fmt.Errorf("SpO2 must be a number")
	}
	return vitals.Reading{UserID: args[0], HeartRate: hr, BloodPressure: bp, Glucose: glucose, SpO2: spo2}, nil
}

func (h *CaregiverBot) handleSafety(c telebot.Context) error {
	handlerLogger := h.handlerLogger(c, "/safety")
	handlerLogger.Info("Command received")

	args := c.Args()
	if len(args) != 6 {
		handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
		return c.Send(safetyUsage)
	}

	ev, err := parseSafetyEvent(args)
	if err != nil {
		handlerLogger.WithError(err).Warn("Invalid safety event")
		return c.Send(fmt.Sprintf("Error: %s\n%s", err.Error(), safetyUsage))
	}

	rec, err := h.monitor.RecordSafetyEvent(h.ctx, ev)
	if err != nil {
		if errors.Is(err, app.ErrInvalidEvent) {
			handlerLogger.WithError(err).Warn("Safety event rejected")
			return c.Send(fmt.Sprintf("Error: %s", err.Error()))
		}
		handlerLogger.WithError(err).Error("Failed to record safety event")
		return c.Send(fmt.Sprintf("An error occurred while recording the event: %s", err.Error()))
	}

	if rec.Flags.Aggregate {
		return c.Send(fmt.Sprintf("Event #%d stored. 🚨 Fall with %ds of inactivity, caregiver alerted.", rec.ID, rec.InactivityDuration))
	}
	return c.Send(fmt.Sprintf("Event #%d stored. No alert.", rec.ID))
}

func parseSafetyEvent(args []string) (safety.Event, error) {
	movement, err := safety.ParseMovement(args[1])
	if err != nil {
		return safety.Event{}, err
	}
	var fall bool
	switch strings.ToLower(args[2]) {
	case "yes", "y", "true":
		fall = true
	case "no", "n", "false":
	default:
		return safety.Event{}, fmt.Errorf("fall must be yes or no, got %q", args[2])
	}
	impact, err := safety.ParseImpactForce(args[3])
	if err != nil {
		return safety.Event{}, err
	}
	inactivity, err := strconv.Atoi(strings.TrimSuffix(args[4], "s"))
	if err != nil {
		return safety.Event{}, fmt.Errorf("inactivity must be a number of seconds")
	}
	location, err := safety.ParseLocation(args[5])
	if err != nil {
		return safety.Event{}, err
	}
	return safety.Event{
		UserID:             args[0],
		Movement:           movement,
		FallDetected:       fall,
		ImpactForce:        impact,
		InactivityDuration: inactivity,
		Location:           location,
	}, nil
}

func (h *CaregiverBot) handleListVitals(c telebot.Context) error {
	records, err := h.monitor.RecentVitals(h.ctx, app.DefaultRecentLimit)
	if err != nil {
		h.handlerLogger(c, "/health").WithError(err).Error("Failed to list health readings")
		return c.Send(fmt.Sprintf("An error occurred while listing readings: %s", err.Error()))
	}
	if len(records) == 0 {
		return c.Send("No health readings yet.")
	}

	var response strings.Builder
	response.WriteString("--- Latest health readings ---\n")
	for _, r := range records {
		mark := "ok"
		if r.Flags.Aggregate {
			mark = "🚨 " + strings.Join(r.Flags.Tripped(), ", ")
		}
		fmt.Fprintf(&response, "#%d %s %s: HR %d, BP %s, glucose %d, SpO2 %d%% (%s)\n",
			r.ID, r.UserID, r.Timestamp.Format("2006-01-02 15:04"),
			r.HeartRate, r.BloodPressure, r.Glucose, r.SpO2, mark)
	}
	return c.Send(response.String())
}

func (h *CaregiverBot) handleListEvents(c telebot.Context) error {
	records, err := h.monitor.RecentSafetyEvents(h.ctx, app.DefaultRecentLimit)
	if err != nil {
		h.handlerLogger(c, "/events").WithError(err).Error("Failed to list safety events")
		return c.Send(fmt.Sprintf("An error occurred while listing events: %s", err.Error()))
	}
	if len(records) == 0 {
		return c.Send("No safety events yet.")
	}

	var response strings.Builder
	response.WriteString("--- Latest safety events ---\n")
	for _, r := range records {
		fall := "no fall"
		if r.FallDetected {
			fall = "fall"
			if r.ImpactForce != "" {
				fall += " (" + string(r.ImpactForce) + " impact)"
			}
		}
		mark := "ok"
		if r.Flags.Aggregate {
			mark = "🚨 alert"
		}
		fmt.Fprintf(&response, "#%d %s %s: %s in %s, %s, inactive %ds (%s)\n",
			r.ID, r.UserID, r.Timestamp.Format("2006-01-02 15:04"),
			r.Movement, r.Location, fall, r.InactivityDuration, mark)
	}
	return c.Send(response.String())
}
