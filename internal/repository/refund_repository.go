package repository

import (
    "context"
    "database/sql"

    "github.com/recoverly/booking-api/internal/model"
)

// RefundRepo provides data access to the refunds table, which records each
// refund's progress through the dispatch saga.  payment_ref carries a
// unique index; Create surfaces a duplicate as a lookup of the existing row
// so dispatching twice for the same reference cannot double-refund.
type RefundRepo struct {
    db *sql.DB
}

// NewRefundRepo returns a new RefundRepo bound to the given database.
func NewRefundRepo(db *sql.DB) *RefundRepo { return &RefundRepo{db: db} }

const refundColumns = `id, payment_ref, entity_kind, entity_id, amount_cents,
    stripe_refund_id, state, created_at, updated_at`

func scanRefund(row interface{ Scan(...any) error }) (*model.Refund, error) {
    var f model.Refund
    var refundID sql.NullString
    err := row.Scan(
        &f.ID, &f.PaymentRef, &f.EntityKind, &f.EntityID, &f.AmountCents,
        &refundID, &f.State, &f.CreatedAt, &f.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if refundID.Valid {
        v := refundID.String
        f.StripeRefundID = &v
    }
    return &f, nil
}

// GetByPaymentRef loads the refund row for a payment reference.  Returns
// ErrRefundNotFound when none exists.
func (r *RefundRepo) GetByPaymentRef(ctx context.Context, paymentRef string) (*model.Refund, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+refundColumns+` FROM refunds WHERE payment_ref = ?`, paymentRef)
    f, err := scanRefund(row)
    if err == sql.ErrNoRows {
        return nil, ErrRefundNotFound
    }
    return f, err
}

// Create records a new PENDING refund.  INSERT IGNORE plus a readback makes
// the call idempotent per payment reference: when another dispatcher won
// the insert race the existing row is returned instead.
func (r *RefundRepo) Create(ctx context.Context, f *model.Refund) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT IGNORE INTO refunds (payment_ref, entity_kind, entity_id, amount_cents, state)
         VALUES (?, ?, ?, ?, ?)`,
        f.PaymentRef, f.EntityKind, f.EntityID, f.AmountCents, model.RefundStatePending)
    if err != nil {
        return err
    }
    existing, err := r.GetByPaymentRef(ctx, f.PaymentRef)
    if err != nil {
        return err
    }
    *f = *existing
    return nil
}

// MarkRefunded advances a PENDING row to REFUNDED, recording the id the
// payment API returned.  The state guard in the WHERE clause keeps the
// transition monotonic.
func (r *RefundRepo) MarkRefunded(ctx context.Context, paymentRef, stripeRefundID string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE refunds SET state = ?, stripe_refund_id = ? WHERE payment_ref = ? AND state = ?`,
        model.RefundStateRefunded, stripeRefundID, paymentRef, model.RefundStatePending)
    return err
}

// MarkSynced advances a REFUNDED row to SYNCED once the entity record
// reflects the refund.
func (r *RefundRepo) MarkSynced(ctx context.Context, paymentRef string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE refunds SET state = ? WHERE payment_ref = ? AND state = ?`,
        model.RefundStateSynced, paymentRef, model.RefundStateRefunded)
    return err
}

// ListUnsynced returns refunds stuck in REFUNDED, oldest first.  The
// reconciliation pass re-applies their entity updates.
func (r *RefundRepo) ListUnsynced(ctx context.Context, limit int) ([]model.Refund, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+refundColumns+` FROM refunds WHERE state = ? ORDER BY id LIMIT ?`,
        model.RefundStateRefunded, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Refund
    for rows.Next() {
        f, err := scanRefund(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *f)
    }
    return out, rows.Err()
}
