package repository

import (
    "context"
    "database/sql"

    "github.com/recoverly/booking-api/internal/model"
)

// PurchaseRepo provides data access to the service_purchases table.
type PurchaseRepo struct {
    db *sql.DB
}

// NewPurchaseRepo returns a new PurchaseRepo bound to the given database.
func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

const purchaseColumns = `id, customer_email, service_type, quantity, amount_cents,
    payment_status, stripe_session_id, version, created_at, updated_at`

func scanPurchase(row interface{ Scan(...any) error }) (*model.ServicePurchase, error) {
    var p model.ServicePurchase
    var sessionID sql.NullString
    err := row.Scan(
        &p.ID, &p.CustomerEmail, &p.ServiceType, &p.Quantity, &p.AmountCents,
        &p.PaymentStatus, &sessionID, &p.Version, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if sessionID.Valid {
        v := sessionID.String
        p.StripeSessionID = &v
    }
    return &p, nil
}

// GetByID loads a purchase by primary key.  Returns ErrPurchaseNotFound
// when no row exists.
func (r *PurchaseRepo) GetByID(ctx context.Context, id uint64) (*model.ServicePurchase, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM service_purchases WHERE id = ?`, id)
    p, err := scanPurchase(row)
    if err == sql.ErrNoRows {
        return nil, ErrPurchaseNotFound
    }
    return p, err
}

// GetBySessionID loads the purchase created from a checkout session.
func (r *PurchaseRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.ServicePurchase, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM service_purchases WHERE stripe_session_id = ?`, sessionID)
    p, err := scanPurchase(row)
    if err == sql.ErrNoRows {
        return nil, ErrPurchaseNotFound
    }
    return p, err
}

// Create inserts a new paid purchase and populates its generated id.
func (r *PurchaseRepo) Create(ctx context.Context, p *model.ServicePurchase) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO service_purchases (customer_email, service_type, quantity, amount_cents,
            payment_status, stripe_session_id, version)
         VALUES (?, ?, ?, ?, ?, ?, 1)`,
        p.CustomerEmail, p.ServiceType, p.Quantity, p.AmountCents, p.PaymentStatus, p.StripeSessionID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    p.Version = 1
    return nil
}

// MarkRefunded flips payment_status to refunded under the version CAS.
func (r *PurchaseRepo) MarkRefunded(ctx context.Context, id, version uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE service_purchases SET payment_status = ?, version = version + 1
         WHERE id = ? AND version = ?`,
        model.PaymentStatusRefunded, id, version)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrVersionConflict
    }
    return nil
}
