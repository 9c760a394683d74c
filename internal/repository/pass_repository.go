package repository

import (
    "context"
    "database/sql"

    "github.com/recoverly/booking-api/internal/model"
)

// PassRepo provides data access to the team_passes, pass_tickets and
// pass_redemptions tables.  Every mutation of an existing pass is guarded
// by a compare-and-swap on team_passes.version and runs counter, ticket and
// history writes inside one transaction, so concurrent redemptions can
// never silently overwrite each other.  All timestamps are stored in UTC.
type PassRepo struct {
    db *sql.DB
}

// NewPassRepo returns a new PassRepo bound to the given database.
func NewPassRepo(db *sql.DB) *PassRepo { return &PassRepo{db: db} }

const passColumns = `id, purchaser_email, team_name, total_passes, remaining_passes,
    service_type, payment_status, purchase_amount_cents, stripe_payment_intent_id,
    stripe_session_id, version, created_at, updated_at`

// scanPass scans one team_passes row from any row scanner.
func scanPass(row interface{ Scan(...any) error }) (*model.TeamPass, error) {
    var p model.TeamPass
    var intentID, sessionID sql.NullString
    err := row.Scan(
        &p.ID, &p.PurchaserEmail, &p.TeamName, &p.TotalPasses, &p.RemainingPasses,
        &p.ServiceType, &p.PaymentStatus, &p.PurchaseAmountCents, &intentID,
        &sessionID, &p.Version, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if intentID.Valid {
        v := intentID.String
        p.StripePaymentIntentID = &v
    }
    if sessionID.Valid {
        v := sessionID.String
        p.StripeSessionID = &v
    }
    return &p, nil
}

// GetByID loads a pass together with its tickets (ordered by ticket_number)
// and full redemption history.  Returns ErrPassNotFound when no row exists.
func (r *PassRepo) GetByID(ctx context.Context, id uint64) (*model.TeamPass, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+passColumns+` FROM team_passes WHERE id = ?`, id)
    p, err := scanPass(row)
    if err == sql.ErrNoRows {
        return nil, ErrPassNotFound
    }
    if err != nil {
        return nil, err
    }
    if p.Tickets, err = r.ticketsOf(ctx, p.ID); err != nil {
        return nil, err
    }
    if p.History, err = r.historyOf(ctx, p.ID); err != nil {
        return nil, err
    }
    return p, nil
}

// GetBySessionID loads the pass created from a checkout session, without
// tickets or history.  Used to make purchase completion idempotent.
func (r *PassRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.TeamPass, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+passColumns+` FROM team_passes WHERE stripe_session_id = ?`, sessionID)
    p, err := scanPass(row)
    if err == sql.ErrNoRows {
        return nil, ErrPassNotFound
    }
    return p, err
}

// FilterByEmail returns all passes purchased by the given email, newest
// first, each with tickets attached.  History is omitted from listings.
func (r *PassRepo) FilterByEmail(ctx context.Context, email string) ([]model.TeamPass, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+passColumns+` FROM team_passes WHERE purchaser_email = ? ORDER BY created_at DESC`, email)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.TeamPass
    for rows.Next() {
        p, err := scanPass(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for i := range out {
        if out[i].Tickets, err = r.ticketsOf(ctx, out[i].ID); err != nil {
            return nil, err
        }
    }
    return out, nil
}

// ListWithoutTickets returns up to limit passes that have no pass_tickets
// rows yet.  The backfill job feeds on this list.
func (r *PassRepo) ListWithoutTickets(ctx context.Context, limit int) ([]model.TeamPass, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+passColumns+` FROM team_passes p
         WHERE NOT EXISTS (SELECT 1 FROM pass_tickets t WHERE t.pass_id = p.id)
         ORDER BY p.id LIMIT ?`, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.TeamPass
    for rows.Next() {
        p, err := scanPass(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

// Create inserts a new pass and its initial ticket list in one transaction.
// The generated ids and timestamps are populated on the provided model.
func (r *PassRepo) Create(ctx context.Context, p *model.TeamPass) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        `INSERT INTO team_passes (purchaser_email, team_name, total_passes, remaining_passes,
            service_type, payment_status, purchase_amount_cents, stripe_payment_intent_id,
            stripe_session_id, version)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
        p.PurchaserEmail, p.TeamName, p.TotalPasses, p.RemainingPasses, p.ServiceType,
        p.PaymentStatus, p.PurchaseAmountCents, p.StripePaymentIntentID, p.StripeSessionID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    p.Version = 1
    if err := insertTicketsTx(ctx, tx, p.ID, p.Tickets); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    for i := range p.Tickets {
        p.Tickets[i].PassID = p.ID
    }
    return nil
}

// ApplyRedemption persists one redemption atomically: it bumps the version
// with a CAS on the counter row, marks the affected ticket used (when the
// pass has tickets) and appends the history record.  The stored
// remaining_passes column is rewritten to the derived balance so the two
// representations cannot drift.  Returns ErrVersionConflict when another
// writer got there first; the caller must reload and retry.
func (r *PassRepo) ApplyRedemption(ctx context.Context, p *model.TeamPass, ticket *model.Ticket, rec model.Redemption) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `UPDATE team_passes SET remaining_passes = ?, version = version + 1 WHERE id = ? AND version = ?`,
        p.Remaining(), p.ID, p.Version)
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

    if ticket != nil {
        _, err = tx.ExecContext(ctx,
            `UPDATE pass_tickets SET is_used = 1, used_at = ?, used_by = ?, service_type = ?
             WHERE pass_id = ? AND ticket_id = ? AND is_used = 0`,
            ticket.UsedAt, ticket.UsedBy, ticket.ServiceType, p.ID, ticket.TicketID)
        if err != nil {
            return err
        }
    }

    _, err = tx.ExecContext(ctx,
        `INSERT INTO pass_redemptions (pass_id, redeemed_at, redeemed_by, service_type) VALUES (?, ?, ?, ?)`,
        p.ID, rec.RedeemedAt, rec.RedeemedBy, rec.ServiceType)
    if err != nil {
        return err
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    p.Version++
    return nil
}

// ReplaceTickets installs a synthesized ticket list on a pass that has
// none, under the same version CAS as redemptions.  Used by the backfill
// job.  Existing tickets are never replaced; the unique ticket_id column
// and the caller's empty-list check make a concurrent double-backfill fail
// rather than duplicate.
func (r *PassRepo) ReplaceTickets(ctx context.Context, p *model.TeamPass, tickets []model.Ticket) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        `UPDATE team_passes SET version = version + 1 WHERE id = ? AND version = ?`,
        p.ID, p.Version)
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
    if err := insertTicketsTx(ctx, tx, p.ID, tickets); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    p.Version++
    p.Tickets = tickets
    return nil
}

// MarkRefunded flips payment_status to refunded under the version CAS.
func (r *PassRepo) MarkRefunded(ctx context.Context, id, version uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE team_passes SET payment_status = ?, version = version + 1 WHERE id = ? AND version = ?`,
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

// insertTicketsTx bulk-inserts ticket rows in a single statement.  Passing
// an empty slice has no effect and returns nil.
func insertTicketsTx(ctx context.Context, tx *sql.Tx, passID uint64, tickets []model.Ticket) error {
    if len(tickets) == 0 {
        return nil
    }
    query := `INSERT INTO pass_tickets (pass_id, ticket_id, ticket_number, is_used, used_at, used_by, service_type) VALUES `
    args := make([]interface{}, 0, len(tickets)*7)
    for i, t := range tickets {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args, passID, t.TicketID, t.TicketNumber, t.IsUsed, t.UsedAt, t.UsedBy, t.ServiceType)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ticketsOf loads a pass's tickets ordered by ticket_number.  The ORDER BY
// is part of the redemption contract: self-service always consumes the
// lowest-numbered unused ticket.
func (r *PassRepo) ticketsOf(ctx context.Context, passID uint64) ([]model.Ticket, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, pass_id, ticket_id, ticket_number, is_used, used_at, used_by, service_type
         FROM pass_tickets WHERE pass_id = ? ORDER BY ticket_number`, passID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Ticket
    for rows.Next() {
        var t model.Ticket
        var usedAt sql.NullTime
        var usedBy, serviceType sql.NullString
        if err := rows.Scan(&t.ID, &t.PassID, &t.TicketID, &t.TicketNumber, &t.IsUsed, &usedAt, &usedBy, &serviceType); err != nil {
            return nil, err
        }
        if usedAt.Valid {
            v := usedAt.Time
            t.UsedAt = &v
        }
        if usedBy.Valid {
            v := usedBy.String
            t.UsedBy = &v
        }
        if serviceType.Valid {
            v := serviceType.String
            t.ServiceType = &v
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// historyOf loads the redemption history oldest first.
func (r *PassRepo) historyOf(ctx context.Context, passID uint64) ([]model.Redemption, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, pass_id, redeemed_at, redeemed_by, service_type
         FROM pass_redemptions WHERE pass_id = ? ORDER BY id`, passID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Redemption
    for rows.Next() {
        var rec model.Redemption
        if err := rows.Scan(&rec.ID, &rec.PassID, &rec.RedeemedAt, &rec.RedeemedBy, &rec.ServiceType); err != nil {
            return nil, err
        }
        out = append(out, rec)
    }
    return out, rows.Err()
}
