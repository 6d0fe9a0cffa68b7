// Package lifecycle derives a participant's activity status from its scheduled
// end date. Everything here is pure and works at calendar-day granularity.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/participant-registry/internal/models"
)

// AutoInactiveReason is recorded when a participant passes its inactive-on date without a reason.
const AutoInactiveReason = "Automatically marked inactive due to reaching scheduled end date"

// Input carries the stored fields the derivation depends on.
type Input struct {
	InactiveOn *time.Time
	Status     string
	Reason     string
}

// Result is the derived status for a participant.
type Result struct {
	Status string
	Reason string
	// Deactivated is true when a stored ACTIVE status crosses into INACTIVE.
	Deactivated bool
}

// Derive computes the activity status for today. A participant is INACTIVE
// from its inactive-on date onwards (inclusive) and ACTIVE otherwise.
func Derive(in Input, today time.Time) Result {
	reason := strings.TrimSpace(in.Reason)
	previous := strings.ToUpper(strings.TrimSpace(in.Status))

	if in.InactiveOn != nil && !CalendarDay(today).Before(CalendarDay(*in.InactiveOn)) {
		if reason == "" {
			reason = AutoInactiveReason
		}
		return Result{
			Status:      models.StatusInactive,
			Reason:      reason,
			Deactivated: previous != models.StatusInactive,
		}
	}

	return Result{Status: models.StatusActive}
}

// Reactivate applies an explicit INACTIVE to ACTIVE override: the scheduled
// date and the reason are dropped regardless of their values.
func Reactivate(in Input) Input {
	in.Status = models.StatusActive
	in.InactiveOn = nil
	in.Reason = ""
	return in
}

// IsStale reports whether the stored status and reason differ from the derived ones.
func IsStale(in Input, today time.Time) bool {
	derived := Derive(in, today)
	return derived.Status != strings.ToUpper(strings.TrimSpace(in.Status)) ||
		derived.Reason != strings.TrimSpace(in.Reason)
}

// DaysUntil returns the whole number of days from today until inactiveOn;
// negative when the date has passed. Nil when no date is scheduled.
func DaysUntil(inactiveOn *time.Time, today time.Time) *int {
	if inactiveOn == nil {
		return nil
	}
	diff := CalendarDay(*inactiveOn).Sub(CalendarDay(today))
	days := int(diff.Hours() / 24)
	return &days
}

// ExpiryLabel describes how far the scheduled end date is from today.
func ExpiryLabel(inactiveOn *time.Time, today time.Time) string {
	days := DaysUntil(inactiveOn, today)
	if days == nil {
		return ""
	}

	switch {
	case *days < 0:
		return fmt.Sprintf("Expired %d day(s) ago", -*days)
	case *days == 0:
		return "Expires today"
	default:
		return fmt.Sprintf("Expires in %d day(s)", *days)
	}
}
