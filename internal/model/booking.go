package model

import "time"

// Booking states stored in bookings.status.
const (
    BookingStatusConfirmed = "CONFIRMED"
    BookingStatusCancelled = "CANCELLED"
)

// Payment states shared by bookings, team passes and service purchases.
const (
    PaymentStatusPaid     = "paid"
    PaymentStatusRefunded = "refunded"
)

// Booking records one scheduled recovery session.  Date and time of the
// appointment are kept as separate columns (DATE and TIME) and combined by
// AppointmentAt when the cancellation window is evaluated.
//
// Fields:
//  ID                    - primary key identifier.
//  CustomerEmail         - email of the booking customer.
//  CustomerName          - display name of the customer.
//  ServiceType           - booked service category.
//  AppointmentDate       - calendar date of the session (midnight UTC).
//  AppointmentTime       - time of day, "15:04" 24h clock.
//  Status                - CONFIRMED or CANCELLED.
//  PaymentStatus         - paid or refunded.
//  TotalAmountCents      - amount paid, in minor units.
//  StripePaymentIntentID - payment reference for refunds (nullable).
//  StripeSessionID       - originating checkout session (nullable).
//  Version               - optimistic-concurrency counter.
type Booking struct {
    ID                    uint64
    CustomerEmail         string
    CustomerName          string
    ServiceType           string
    AppointmentDate       time.Time
    AppointmentTime       string
    Status                string
    PaymentStatus         string
    TotalAmountCents      int64
    StripePaymentIntentID *string
    StripeSessionID       *string
    Version               uint64
    CreatedAt             time.Time
    UpdatedAt             time.Time
}

// AppointmentAt combines the date and time-of-day columns into a single
// UTC instant.  A malformed time string yields the date at midnight.
func (b *Booking) AppointmentAt() time.Time {
    d := b.AppointmentDate
    t, err := time.Parse("15:04", b.AppointmentTime)
    if err != nil {
        return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
    }
    return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
