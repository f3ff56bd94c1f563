package vitals

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Alert thresholds. Bounds are exclusive: a value equal to a threshold is normal.
const (
	HeartRateLow  = 60
	HeartRateHigh = 100
	SystolicHigh  = 140
	DiastolicHigh = 90
	GlucoseLow    = 70
	GlucoseHigh   = 140
	SpO2Low       = 90
)

// BloodPressure is a systolic/diastolic pair in mmHg.
type BloodPressure struct {
	Systolic  int
	Diastolic int
}

func (bp BloodPressure) String() string {
	return fmt.Sprintf("%d/%d", bp.Systolic, bp.Diastolic)
}

// ParseBloodPressure reads the "SYS/DIA" form used by the monitoring exports.
func ParseBloodPressure(s string) (BloodPressure, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return BloodPressure{}, fmt.Errorf("blood pressure %q: expected SYS/DIA", s)
	}
	sys, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return BloodPressure{}, fmt.Errorf("blood pressure %q: invalid systolic: %w", s, err)
	}
	dia, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return BloodPressure{}, fmt.Errorf("blood pressure %q: invalid diastolic: %w", s, err)
	}
	return BloodPressure{Systolic: sys, Diastolic: dia}, nil
}

// Reading is a single set of vital signs for a user.
type Reading struct {
	UserID        string
	Timestamp     time.Time
	HeartRate     int
	BloodPressure BloodPressure
	Glucose       int
	SpO2          int
}

// AlertFlags are derived from a Reading by Evaluate.
type AlertFlags struct {
	HeartRate         bool
	BloodPressure     bool
	Glucose           bool
	SpO2              bool
	Aggregate         bool
	CaregiverNotified bool
}

// Tripped names the metrics whose flag is set, in a fixed order.
func (f AlertFlags) Tripped() []string {
	var names []string
	if f.HeartRate {
		names = append(names, "heart rate")
	}
	if f.BloodPressure {
		names = append(names, "blood pressure")
	}
	if f.Glucose {
		names = append(names, "glucose")
	}
	if f.SpO2 {
		names = append(names, "SpO2")
	}
	return names
}

// Evaluate applies the threshold rules to r. Values are taken as given; range
// validation is the caller's job.
func Evaluate(r Reading) AlertFlags {
	f := AlertFlags{
		HeartRate:     r.HeartRate < HeartRateLow || r.HeartRate > HeartRateHigh,
		BloodPressure: r.BloodPressure.Systolic > SystolicHigh || r.BloodPressure.Diastolic > DiastolicHigh,
		Glucose:       r.Glucose < GlucoseLow || r.Glucose > GlucoseHigh,
		SpO2:          r.SpO2 < SpO2Low,
	}
	f.Aggregate = f.HeartRate || f.BloodPressure || f.Glucose || f.SpO2
	f.CaregiverNotified = f.Aggregate
	return f
}

// Record is a persisted reading together with its evaluated flags.
// Corresponds to the 'health_readings' table.
type Record struct {
	ID int64
	Reading
	Flags     AlertFlags
	CreatedAt time.Time
}
