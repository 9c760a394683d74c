package model

import "time"

// Refund saga states.  A refund row advances strictly forward:
// PENDING (recorded, money not yet moved) -> REFUNDED (payment API call
// succeeded) -> SYNCED (entity status updated to match).
const (
    RefundStatePending  = "PENDING"
    RefundStateRefunded = "REFUNDED"
    RefundStateSynced   = "SYNCED"
)

// Entity kinds a refund can target.
const (
    EntityKindBooking         = "booking"
    EntityKindTeamPass        = "team_pass"
    EntityKindServicePurchase = "service_purchase"
)

// Refund tracks one refund through the dispatch saga, stored in `refunds`.
// PaymentRef is unique: dispatching twice for the same payment reference
// reuses the existing row and never issues a second refund upstream.
//
// Fields:
//  ID             - primary key identifier.
//  PaymentRef     - payment-intent reference the refund was issued against.
//  EntityKind     - booking, team_pass or service_purchase.
//  EntityID       - id of the refunded entity.
//  AmountCents    - refunded amount in minor units.
//  StripeRefundID - id returned by the payment API (nullable until REFUNDED).
//  State          - PENDING, REFUNDED or SYNCED.
type Refund struct {
    ID             uint64
    PaymentRef     string
    EntityKind     string
    EntityID       uint64
    AmountCents    int64
    StripeRefundID *string
    State          string
    CreatedAt      time.Time
    UpdatedAt      time.Time
}
