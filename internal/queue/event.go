// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer plumbing around them.
package queue

// Queue names.  Both are declared durable by publisher and consumer.
const (
    PassRedeemedQueue  = "pass.redeemed"
    RefundSettledQueue = "refund.settled"
)

// PassRedeemedEvent is published after every successful redemption.  It
// carries enough for downstream consumers to notify or aggregate without
// querying the primary database.
type PassRedeemedEvent struct {
    PassID       uint64 `json:"pass_id"`
    TicketID     string `json:"ticket_id,omitempty"`
    TicketNumber int    `json:"ticket_number,omitempty"`
    RedeemedBy   string `json:"redeemed_by"`
    ServiceType  string `json:"service_type"`
    Remaining    int    `json:"remaining"`
    RedeemedAt   string `json:"redeemed_at"`
}

// RefundSettledEvent is published once the payment API has accepted a
// refund.  The reconciliation consumer uses it to finish the entity-side
// status update when the dispatching request died between the two steps.
type RefundSettledEvent struct {
    PaymentRef  string `json:"payment_ref"`
    EntityKind  string `json:"entity_kind"`
    EntityID    uint64 `json:"entity_id"`
    AmountCents int64  `json:"amount_cents"`
    RefundID    string `json:"refund_id"`
    SettledAt   string `json:"settled_at"`
}
