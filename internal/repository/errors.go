// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as services
// and handlers to distinguish between failure scenarios.  For example,
// ErrVersionConflict signals that a versioned update lost a race and should
// be retried on fresh state.
package repository

import "errors"

// ErrPassNotFound is returned when a team pass lookup matches no row.
var ErrPassNotFound = errors.New("pass not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPurchaseNotFound is returned when a service purchase lookup matches no row.
var ErrPurchaseNotFound = errors.New("purchase not found")

// ErrRefundNotFound is returned when no refund row exists for a payment
// reference.
var ErrRefundNotFound = errors.New("refund not found")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when creating a user with a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenNotFound is returned when a refresh token is absent, expired or
// revoked.
var ErrTokenNotFound = errors.New("refresh token not found")

// ErrVersionConflict is returned when a versioned update matched zero rows
// because another writer advanced the version first.  Callers should reload
// the record and retry; handlers translate exhausted retries into HTTP 409.
var ErrVersionConflict = errors.New("version conflict")
