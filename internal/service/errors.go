package service

import (
    "errors"
    "fmt"
)

// ErrExhausted is returned when a pass has no remaining balance.
var ErrExhausted = errors.New("pass exhausted")

// ErrTicketAlreadyUsed is returned when a shared-ticket redemption targets
// a ticket whose is_used flag is already set.
var ErrTicketAlreadyUsed = errors.New("ticket already used")

// ErrTicketNotFound is returned when a pass holds no ticket with the
// requested id.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrNoTicketAvailable is returned when a pass reports remaining balance
// but every ticket is marked used, a state reachable only through legacy
// drift between the counter and the ticket list.
var ErrNoTicketAvailable = errors.New("no unused ticket available")

// ErrNoPaymentReference is returned when a refund target has no resolvable
// payment-intent reference.
var ErrNoPaymentReference = errors.New("no payment reference on record")

// ErrAlreadyCancelled is returned when cancelling a booking that is already
// cancelled.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrSessionUnpaid is returned when completing a purchase whose checkout
// session has not been paid.
var ErrSessionUnpaid = errors.New("checkout session not paid")

// ErrUnknownEntityKind is returned when a refund names an entity kind the
// service does not know.
var ErrUnknownEntityKind = errors.New("unknown entity kind")

// WindowClosedError rejects a cancellation or reschedule inside the 24-hour
// window.  HoursUntil carries the remaining hours, rounded to the nearest
// integer, for the caller's error message.
type WindowClosedError struct {
    HoursUntil int
}

func (e *WindowClosedError) Error() string {
    return fmt.Sprintf("appointment is within the 24-hour window (%d hours away)", e.HoursUntil)
}
