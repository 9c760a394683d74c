package service

import (
    "context"
    "time"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/payment"
    "github.com/recoverly/booking-api/internal/queue"
)

// PassStore is the persistence contract the pass services depend on.  The
// MySQL repository implements it; tests substitute an in-memory fake.
// Mutating calls operate under optimistic concurrency: they compare against
// the version the model was loaded with and return
// repository.ErrVersionConflict when it has moved on.
type PassStore interface {
    GetByID(ctx context.Context, id uint64) (*model.TeamPass, error)
    GetBySessionID(ctx context.Context, sessionID string) (*model.TeamPass, error)
    FilterByEmail(ctx context.Context, email string) ([]model.TeamPass, error)
    ListWithoutTickets(ctx context.Context, limit int) ([]model.TeamPass, error)
    Create(ctx context.Context, p *model.TeamPass) error
    ApplyRedemption(ctx context.Context, p *model.TeamPass, ticket *model.Ticket, rec model.Redemption) error
    ReplaceTickets(ctx context.Context, p *model.TeamPass, tickets []model.Ticket) error
    MarkRefunded(ctx context.Context, id, version uint64) error
}

// BookingStore is the persistence contract for bookings.
type BookingStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)
    GetBySessionID(ctx context.Context, sessionID string) (*model.Booking, error)
    Create(ctx context.Context, b *model.Booking) error
    Reschedule(ctx context.Context, id, version uint64, date time.Time, timeOfDay string) error
    MarkCancelledAndRefunded(ctx context.Context, id, version uint64) error
}

// PurchaseStore is the persistence contract for service purchases.
type PurchaseStore interface {
    GetByID(ctx context.Context, id uint64) (*model.ServicePurchase, error)
    GetBySessionID(ctx context.Context, sessionID string) (*model.ServicePurchase, error)
    Create(ctx context.Context, p *model.ServicePurchase) error
    MarkRefunded(ctx context.Context, id, version uint64) error
}

// RefundStore is the persistence contract for refund saga rows.
type RefundStore interface {
    GetByPaymentRef(ctx context.Context, paymentRef string) (*model.Refund, error)
    Create(ctx context.Context, f *model.Refund) error
    MarkRefunded(ctx context.Context, paymentRef, stripeRefundID string) error
    MarkSynced(ctx context.Context, paymentRef string) error
    ListUnsynced(ctx context.Context, limit int) ([]model.Refund, error)
}

// PaymentAPI is the slice of the payment collaborator the services use.
type PaymentAPI interface {
    CreateCheckoutSession(ctx context.Context, req payment.CreateSessionRequest) (*payment.Session, error)
    RetrieveSession(ctx context.Context, sessionID string) (*payment.Session, error)
    CreateRefund(ctx context.Context, paymentRef string, amountCents int64) (*payment.Refund, error)
}

// EventPublisher publishes domain events to the message broker.  Publishing
// is best-effort: callers log failures and carry on.
type EventPublisher interface {
    PublishPassRedeemed(ctx context.Context, ev queue.PassRedeemedEvent) error
    PublishRefundSettled(ctx context.Context, ev queue.RefundSettledEvent) error
}
