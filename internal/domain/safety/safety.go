package safety

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InactivityThreshold is the inactivity, in seconds, that a detected fall must
// exceed before it raises an alert.
const InactivityThreshold = 90

type Movement string

const (
	MovementWalking    Movement = "Walking"
	MovementSitting    Movement = "Sitting"
	MovementStanding   Movement = "Standing"
	MovementLying      Movement = "Lying"
	MovementNoMovement Movement = "No Movement"
)

var Movements = []Movement{MovementWalking, MovementSitting, MovementStanding, MovementLying, MovementNoMovement}

type ImpactForce string

const (
	ImpactLow    ImpactForce = "Low"
	ImpactMedium ImpactForce = "Medium"
	ImpactHigh   ImpactForce = "High"
)

var ImpactForces = []ImpactForce{ImpactLow, ImpactMedium, ImpactHigh}

type Location string

const (
	LocationBedroom    Location = "Bedroom"
	LocationBathroom   Location = "Bathroom"
	LocationKitchen    Location = "Kitchen"
	LocationLivingRoom Location = "Living Room"
)

var Locations = []Location{LocationBedroom, LocationBathroom, LocationKitchen, LocationLivingRoom}

// ErrImpactWithoutFall is returned by Validate when an impact force is set on an
// event that has no fall.
var ErrImpactWithoutFall = errors.New("impact force is only recorded for detected falls")

// Event is a single motion or fall observation for a user.
type Event struct {
	UserID             string
	Timestamp          time.Time
	Movement           Movement
	FallDetected       bool
	ImpactForce        ImpactForce // empty unless FallDetected
	InactivityDuration int         // seconds
	Location           Location
}

// Validate checks the structural rules of an event. Evaluate does not call it.
func (e Event) Validate() error {
	if e.ImpactForce != "" && !e.FallDetected {
		return ErrImpactWithoutFall
	}
	if e.InactivityDuration < 0 {
		return fmt.Errorf("inactivity duration must not be negative, got %d", e.InactivityDuration)
	}
	return nil
}

// AlertFlags are derived from an Event by Evaluate.
type AlertFlags struct {
	Aggregate         bool
	CaregiverNotified bool
}

// Evaluate raises an alert only for a detected fall followed by more than
// InactivityThreshold seconds of inactivity. Movement alone never alerts, not
// even "No Movement".
func Evaluate(e Event) AlertFlags {
	alert := e.FallDetected && e.InactivityDuration > InactivityThreshold
	return AlertFlags{Aggregate: alert, CaregiverNotified: alert}
}

// Record is a persisted event together with its evaluated flags.
// Corresponds to the 'safety_events' table.
type Record struct {
	ID int64
	Event
	Flags     AlertFlags
	CreatedAt time.Time
}

// ParseMovement matches s against known movements; underscores count as spaces.
func ParseMovement(s string) (Movement, error) {
	for _, m := range Movements {
		if matches(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown movement %q", s)
}

// ParseImpactForce accepts "", "-" or "none" as no impact.
func ParseImpactForce(s string) (ImpactForce, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "none":
		return "", nil
	}
	for _, f := range ImpactForces {
		if matches(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown impact force %q", s)
}

func ParseLocation(s string) (Location, error) {
	for _, l := range Locations {
		if matches(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown location %q", s)
}

func matches(input, name string) bool {
	normalized := strings.ReplaceAll(strings.TrimSpace(input), "_", " ")
	return strings.EqualFold(normalized, name)
}
