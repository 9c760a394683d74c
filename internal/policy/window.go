package policy

import (
    "math"
    "time"
)

// ModificationWindow is how far ahead of the appointment a booking may
// still be cancelled or rescheduled.
const ModificationWindow = 24 * time.Hour

// WindowCheck is the outcome of evaluating the modification window for one
// appointment.  HoursUntil is the remaining time rounded to the nearest
// whole hour, surfaced to the caller on rejection.
type WindowCheck struct {
    Allowed    bool
    HoursUntil int
}

// CheckModificationWindow reports whether an appointment at the given
// instant may still be modified as of now.  The action is permitted only
// when at least 24 full hours remain; at exactly 24 hours it is allowed.
func CheckModificationWindow(appointmentAt, now time.Time) WindowCheck {
    hours := appointmentAt.Sub(now).Hours()
    return WindowCheck{
        Allowed:    hours >= ModificationWindow.Hours(),
        HoursUntil: int(math.Round(hours)),
    }
}
