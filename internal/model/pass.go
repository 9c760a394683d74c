package model

import "time"

// Actor sentinels recorded in redemption history and on tickets when no
// authenticated identity applies.
const (
    ActorSelfService = "self-service" // customer redeemed without a ticket id
    ActorBackfill    = "backfill"     // ticket synthesized by the backfill job
)

// TeamPass represents a bundle of prepaid service passes purchased for a
// team.  Each field corresponds to a column in the `team_passes` table.
// The struct carries two views of consumption: the stored RemainingPasses
// counter (authoritative for legacy passes created before ticket-level
// tracking) and the Tickets slice, from which the remaining balance is
// derived once populated.  Version is the optimistic-concurrency token;
// every write must carry the version it read and bumps it by one.
//
// Fields:
//  ID                    - primary key identifier.
//  PurchaserEmail        - email of the purchasing customer.
//  TeamName              - display name for the team.
//  TotalPasses           - number of passes bought; immutable after creation.
//  RemainingPasses       - stored balance; rewritten to the derived value on
//                          every versioned update.
//  ServiceType           - service category the pass was sold for.
//  PaymentStatus         - payment state (paid, refunded).
//  PurchaseAmountCents   - amount paid, in minor units.
//  StripePaymentIntentID - payment reference used for refunds (nullable).
//  StripeSessionID       - checkout session that produced the pass (nullable).
//  Version               - optimistic-concurrency counter.
//  Tickets               - itemized tickets ordered by TicketNumber; empty
//                          for legacy passes pending backfill.
//  History               - append-only redemption log, oldest first.
type TeamPass struct {
    ID                    uint64
    PurchaserEmail        string
    TeamName              string
    TotalPasses           int
    RemainingPasses       int
    ServiceType           string
    PaymentStatus         string
    PurchaseAmountCents   int64
    StripePaymentIntentID *string
    StripeSessionID       *string
    Version               uint64
    CreatedAt             time.Time
    UpdatedAt             time.Time

    Tickets []Ticket
    History []Redemption
}

// Ticket is one redeemable unit of a TeamPass, stored in `pass_tickets`.
// IsUsed transitions false to true exactly once; UsedAt, UsedBy and
// ServiceType are set together on that transition and never cleared.
type Ticket struct {
    ID           uint64
    PassID       uint64
    TicketID     string // opaque unique id, shareable via link
    TicketNumber int    // 1-based position within the pass
    IsUsed       bool
    UsedAt       *time.Time
    UsedBy       *string
    ServiceType  *string
}

// Redemption is one entry of a pass's append-only history, stored in
// `pass_redemptions`.
type Redemption struct {
    ID          uint64
    PassID      uint64
    RedeemedAt  time.Time
    RedeemedBy  string
    ServiceType string
}

// Remaining returns the pass's usable balance.  When the ticket list is
// populated it is derived from the unused-ticket count so the counter can
// never drift from the tickets; legacy passes without tickets fall back to
// the stored column.
func (p *TeamPass) Remaining() int {
    if len(p.Tickets) == 0 {
        return p.RemainingPasses
    }
    n := 0
    for _, t := range p.Tickets {
        if !t.IsUsed {
            n++
        }
    }
    return n
}

// UsedCount returns how many tickets have been consumed, derived the same
// way as Remaining.
func (p *TeamPass) UsedCount() int {
    return p.TotalPasses - p.Remaining()
}

// FirstUnusedTicket returns a pointer to the unused ticket with the lowest
// TicketNumber, or nil when every ticket is used or the list is empty.
// Selection by ticket number, not slice position, is a deliberate contract:
// self-service redemption must consume tickets in numbered order even if
// the storage layer ever returns them unsorted.
func (p *TeamPass) FirstUnusedTicket() *Ticket {
    var best *Ticket
    for i := range p.Tickets {
        t := &p.Tickets[i]
        if t.IsUsed {
            continue
        }
        if best == nil || t.TicketNumber < best.TicketNumber {
            best = t
        }
    }
    return best
}

// TicketByID returns the ticket with the given opaque id, or nil when the
// pass holds no such ticket.
func (p *TeamPass) TicketByID(ticketID string) *Ticket {
    for i := range p.Tickets {
        if p.Tickets[i].TicketID == ticketID {
            return &p.Tickets[i]
        }
    }
    return nil
}
