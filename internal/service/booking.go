package service

import (
    "context"
    "errors"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/policy"
)

// ErrAppointmentInPast is returned when a reschedule targets an instant
// that is not in the future.
var ErrAppointmentInPast = errors.New("new appointment must be in the future")

// BookingService owns cancellation and rescheduling of recovery sessions.
// Both operations are gated by the 24-hour modification window evaluated
// against the booking's current appointment; inside the window the record
// is left untouched and the remaining hours are surfaced to the caller.
type BookingService struct {
    bookings BookingStore
    refunds  *RefundService
    log      *logrus.Logger
    now      func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(bookings BookingStore, refunds *RefundService, log *logrus.Logger) *BookingService {
    return &BookingService{
        bookings: bookings,
        refunds:  refunds,
        log:      log,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// Cancel cancels a booking and refunds its full amount through the refund
// saga.  The booking is marked cancelled and refunded only after the
// payment API accepts the refund.
func (s *BookingService) Cancel(ctx context.Context, id uint64) (*model.Refund, error) {
    b, err := s.bookings.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if b.Status == model.BookingStatusCancelled {
        return nil, ErrAlreadyCancelled
    }
    if wc := policy.CheckModificationWindow(b.AppointmentAt(), s.now()); !wc.Allowed {
        return nil, &WindowClosedError{HoursUntil: wc.HoursUntil}
    }
    return s.refunds.Dispatch(ctx, model.EntityKindBooking, id)
}

// Reschedule moves a booking to a new date and time.  The window is
// evaluated against the current appointment; the new appointment only has
// to lie in the future.
func (s *BookingService) Reschedule(ctx context.Context, id uint64, date time.Time, timeOfDay string) (*model.Booking, error) {
    b, err := s.bookings.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if b.Status == model.BookingStatusCancelled {
        return nil, ErrAlreadyCancelled
    }
    if wc := policy.CheckModificationWindow(b.AppointmentAt(), s.now()); !wc.Allowed {
        return nil, &WindowClosedError{HoursUntil: wc.HoursUntil}
    }
    next := model.Booking{AppointmentDate: date, AppointmentTime: timeOfDay}
    if !next.AppointmentAt().After(s.now()) {
        return nil, ErrAppointmentInPast
    }
    if err := s.bookings.Reschedule(ctx, id, b.Version, date, timeOfDay); err != nil {
        return nil, err
    }
    b.AppointmentDate = date
    b.AppointmentTime = timeOfDay
    b.Version++
    return b, nil
}
