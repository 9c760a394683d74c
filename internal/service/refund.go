package service

import (
    "context"
    "fmt"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/queue"
)

// reconcileBatch caps how many stuck refunds one reconciliation pass
// repairs.
const reconcileBatch = 200

// RefundService dispatches refunds for the three entity kinds and drives
// each one through a small saga: PENDING (row recorded, money not moved),
// REFUNDED (payment API accepted the refund), SYNCED (entity status
// updated).  The saga row is keyed by payment reference, so dispatching
// twice for the same payment reuses the existing row and never issues a
// second refund upstream.  A crash between the refund call and the entity
// update leaves the row in REFUNDED; Reconcile finishes those.
type RefundService struct {
    bookings  BookingStore
    passes    PassStore
    purchases PurchaseStore
    refunds   RefundStore
    payments  PaymentAPI
    events    EventPublisher
    log       *logrus.Logger
    now       func() time.Time
}

// NewRefundService constructs a RefundService.  events may be nil; the
// settled event is then skipped.
func NewRefundService(bookings BookingStore, passes PassStore, purchases PurchaseStore, refunds RefundStore, payments PaymentAPI, events EventPublisher, log *logrus.Logger) *RefundService {
    return &RefundService{
        bookings:  bookings,
        passes:    passes,
        purchases: purchases,
        refunds:   refunds,
        payments:  payments,
        events:    events,
        log:       log,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// refundTarget is the resolved view of an entity about to be refunded.
type refundTarget struct {
    paymentRef  string
    amountCents int64
}

// Dispatch refunds the full recorded amount of the given entity.  The
// entity's stored state is not touched unless the payment API accepts the
// refund.  Returns the saga row in its final state for this call.
func (s *RefundService) Dispatch(ctx context.Context, kind string, entityID uint64) (*model.Refund, error) {
    target, err := s.resolve(ctx, kind, entityID)
    if err != nil {
        return nil, err
    }

    f := &model.Refund{
        PaymentRef:  target.paymentRef,
        EntityKind:  kind,
        EntityID:    entityID,
        AmountCents: target.amountCents,
    }
    if err := s.refunds.Create(ctx, f); err != nil {
        return nil, err
    }

    switch f.State {
    case model.RefundStateSynced:
        // Fully settled earlier; nothing to do.
        return f, nil
    case model.RefundStateRefunded:
        // Money moved but the entity was never updated.  Finish that now.
        if err := s.sync(ctx, f); err != nil {
            s.log.WithError(err).WithField("payment_ref", f.PaymentRef).Warn("refund sync deferred to reconciliation")
            return f, nil
        }
        f.State = model.RefundStateSynced
        return f, nil
    }

    ref, err := s.payments.CreateRefund(ctx, f.PaymentRef, f.AmountCents)
    if err != nil {
        return nil, fmt.Errorf("create refund: %w", err)
    }
    if err := s.refunds.MarkRefunded(ctx, f.PaymentRef, ref.ID); err != nil {
        // The refund went through; the row will be repaired by
        // reconciliation keyed on the payment reference.
        s.log.WithError(err).WithField("payment_ref", f.PaymentRef).Error("mark refunded failed after successful refund")
    }
    f.State = model.RefundStateRefunded
    f.StripeRefundID = &ref.ID
    s.publishSettled(ctx, f, ref.ID)

    if err := s.sync(ctx, f); err != nil {
        s.log.WithError(err).WithField("payment_ref", f.PaymentRef).Warn("refund sync deferred to reconciliation")
        return f, nil
    }
    if err := s.refunds.MarkSynced(ctx, f.PaymentRef); err != nil {
        s.log.WithError(err).WithField("payment_ref", f.PaymentRef).Warn("mark synced failed")
        return f, nil
    }
    f.State = model.RefundStateSynced
    return f, nil
}

// Reconcile finishes every refund stuck in REFUNDED by re-applying its
// entity update.  It is idempotent: entity updates are no-ops once applied
// and the saga row only moves forward.  Returns how many rows were synced.
func (s *RefundService) Reconcile(ctx context.Context) (int, error) {
    rows, err := s.refunds.ListUnsynced(ctx, reconcileBatch)
    if err != nil {
        return 0, err
    }
    synced := 0
    for i := range rows {
        f := &rows[i]
        if err := s.sync(ctx, f); err != nil {
            s.log.WithError(err).WithField("payment_ref", f.PaymentRef).Warn("reconcile: entity sync failed")
            continue
        }
        if err := s.refunds.MarkSynced(ctx, f.PaymentRef); err != nil {
            s.log.WithError(err).WithField("payment_ref", f.PaymentRef).Warn("reconcile: mark synced failed")
            continue
        }
        synced++
    }
    return synced, nil
}

// resolve looks up the entity and extracts the amount and payment-intent
// reference to refund.  Service purchases resolve the reference indirectly
// through their stored checkout session.
func (s *RefundService) resolve(ctx context.Context, kind string, entityID uint64) (refundTarget, error) {
    switch kind {
    case model.EntityKindBooking:
        b, err := s.bookings.GetByID(ctx, entityID)
        if err != nil {
            return refundTarget{}, err
        }
        if b.StripePaymentIntentID == nil || *b.StripePaymentIntentID == "" {
            return refundTarget{}, ErrNoPaymentReference
        }
        return refundTarget{paymentRef: *b.StripePaymentIntentID, amountCents: b.TotalAmountCents}, nil
    case model.EntityKindTeamPass:
        p, err := s.passes.GetByID(ctx, entityID)
        if err != nil {
            return refundTarget{}, err
        }
        if p.StripePaymentIntentID == nil || *p.StripePaymentIntentID == "" {
            return refundTarget{}, ErrNoPaymentReference
        }
        return refundTarget{paymentRef: *p.StripePaymentIntentID, amountCents: p.PurchaseAmountCents}, nil
    case model.EntityKindServicePurchase:
        p, err := s.purchases.GetByID(ctx, entityID)
        if err != nil {
            return refundTarget{}, err
        }
        if p.StripeSessionID == nil || *p.StripeSessionID == "" {
            return refundTarget{}, ErrNoPaymentReference
        }
        sess, err := s.payments.RetrieveSession(ctx, *p.StripeSessionID)
        if err != nil {
            return refundTarget{}, fmt.Errorf("retrieve session: %w", err)
        }
        if sess.PaymentIntentID == "" {
            return refundTarget{}, ErrNoPaymentReference
        }
        return refundTarget{paymentRef: sess.PaymentIntentID, amountCents: p.AmountCents}, nil
    default:
        return refundTarget{}, ErrUnknownEntityKind
    }
}

// sync applies the entity-side consequence of a settled refund.  Bookings
// are additionally cancelled; passes and purchases only flip their payment
// status.  Updates are idempotent: an entity already refunded matches zero
// rows, which the stores report as a version conflict and sync ignores by
// re-checking the entity state.
func (s *RefundService) sync(ctx context.Context, f *model.Refund) error {
    switch f.EntityKind {
    case model.EntityKindBooking:
        b, err := s.bookings.GetByID(ctx, f.EntityID)
        if err != nil {
            return err
        }
        if b.PaymentStatus == model.PaymentStatusRefunded && b.Status == model.BookingStatusCancelled {
            return nil
        }
        return s.bookings.MarkCancelledAndRefunded(ctx, b.ID, b.Version)
    case model.EntityKindTeamPass:
        p, err := s.passes.GetByID(ctx, f.EntityID)
        if err != nil {
            return err
        }
        if p.PaymentStatus == model.PaymentStatusRefunded {
            return nil
        }
        return s.passes.MarkRefunded(ctx, p.ID, p.Version)
    case model.EntityKindServicePurchase:
        p, err := s.purchases.GetByID(ctx, f.EntityID)
        if err != nil {
            return err
        }
        if p.PaymentStatus == model.PaymentStatusRefunded {
            return nil
        }
        return s.purchases.MarkRefunded(ctx, p.ID, p.Version)
    default:
        return ErrUnknownEntityKind
    }
}

// publishSettled emits the refund.settled event.  Failures are logged and
// swallowed; reconciliation also runs over the refunds table directly.
func (s *RefundService) publishSettled(ctx context.Context, f *model.Refund, refundID string) {
    if s.events == nil {
        return
    }
    ev := queue.RefundSettledEvent{
        PaymentRef:  f.PaymentRef,
        EntityKind:  f.EntityKind,
        EntityID:    f.EntityID,
        AmountCents: f.AmountCents,
        RefundID:    refundID,
        SettledAt:   s.now().Format(time.RFC3339),
    }
    if err := s.events.PublishRefundSettled(ctx, ev); err != nil {
        s.log.WithError(err).WithField("payment_ref", f.PaymentRef).Warn("publish refund.settled failed")
    }
}
