package policy

import (
    "testing"
    "time"
)

func TestCheckModificationWindow(t *testing.T) {
    appointment := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)

    cases := []struct {
        name      string
        now       time.Time
        allowed   bool
        hoursWant int
    }{
        {"well outside", appointment.Add(-72 * time.Hour), true, 72},
        {"exactly 24 hours", appointment.Add(-24 * time.Hour), true, 24},
        {"just inside", appointment.Add(-23 * time.Hour), false, 23},
        {"fractional hours round", appointment.Add(-23*time.Hour - 40*time.Minute), false, 24},
        {"rounding does not grant", appointment.Add(-23*time.Hour - 59*time.Minute), false, 24},
        {"minutes before", appointment.Add(-30 * time.Minute), false, 1},
        {"already past", appointment.Add(2 * time.Hour), false, -2},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got := CheckModificationWindow(appointment, tc.now)
            if got.Allowed != tc.allowed {
                t.Fatalf("allowed = %v, want %v", got.Allowed, tc.allowed)
            }
            if got.HoursUntil != tc.hoursWant {
                t.Fatalf("hours until = %d, want %d", got.HoursUntil, tc.hoursWant)
            }
        })
    }
}
