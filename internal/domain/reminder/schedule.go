package reminder

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for scheduled times. Date-qualified layouts are tried first.
var (
	dateTimeLayouts  = []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05"}
	timeOfDayLayouts = []string{"15:04:05", "15:04"}
)

// ParseScheduledTime resolves raw into an absolute instant. A bare time of day is
// placed on now's calendar date in now's location.
func ParseScheduledTime(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty scheduled time")
	}
	loc := now.Location()
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range timeOfDayLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized scheduled time %q", raw)
}

// NormalizeScheduledTime validates raw and returns it in canonical storage form:
// "15:04:05" for a time of day, "2006-01-02 15:04:05" for a date-qualified time.
func NormalizeScheduledTime(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02 15:04:05"), nil
		}
	}
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("unrecognized scheduled time %q, expected HH:MM[:SS] or YYYY-MM-DD HH:MM[:SS]", raw)
}
