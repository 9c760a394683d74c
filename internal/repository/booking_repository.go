package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/recoverly/booking-api/internal/model"
)

// BookingRepo provides data access to the bookings table.  Reschedules and
// cancellations are guarded by the same version CAS as pass mutations so a
// booking cannot be rescheduled and cancelled by two racing requests.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, customer_email, customer_name, service_type, appointment_date,
    appointment_time, status, payment_status, total_amount_cents, stripe_payment_intent_id,
    stripe_session_id, version, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var b model.Booking
    var intentID, sessionID sql.NullString
    err := row.Scan(
        &b.ID, &b.CustomerEmail, &b.CustomerName, &b.ServiceType, &b.AppointmentDate,
        &b.AppointmentTime, &b.Status, &b.PaymentStatus, &b.TotalAmountCents, &intentID,
        &sessionID, &b.Version, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if intentID.Valid {
        v := intentID.String
        b.StripePaymentIntentID = &v
    }
    if sessionID.Valid {
        v := sessionID.String
        b.StripeSessionID = &v
    }
    return &b, nil
}

// GetByID loads a booking by primary key.  Returns ErrBookingNotFound when
// no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
    b, err := scanBooking(row)
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// GetBySessionID loads the booking created from a checkout session.
func (r *BookingRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE stripe_session_id = ?`, sessionID)
    b, err := scanBooking(row)
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// Create inserts a new confirmed booking and populates its generated id.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO bookings (customer_email, customer_name, service_type, appointment_date,
            appointment_time, status, payment_status, total_amount_cents,
            stripe_payment_intent_id, stripe_session_id, version)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
        b.CustomerEmail, b.CustomerName, b.ServiceType, b.AppointmentDate, b.AppointmentTime,
        b.Status, b.PaymentStatus, b.TotalAmountCents, b.StripePaymentIntentID, b.StripeSessionID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    b.Version = 1
    return nil
}

// Reschedule moves a booking to a new date and time under the version CAS.
func (r *BookingRepo) Reschedule(ctx context.Context, id, version uint64, date time.Time, timeOfDay string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET appointment_date = ?, appointment_time = ?, version = version + 1
         WHERE id = ? AND version = ?`,
        date, timeOfDay, id, version)
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

// MarkCancelledAndRefunded sets status to CANCELLED and payment_status to
// refunded in one statement.  Bookings are the only entity kind whose
// refund also cancels the record.
func (r *BookingRepo) MarkCancelledAndRefunded(ctx context.Context, id, version uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, payment_status = ?, version = version + 1
         WHERE id = ? AND version = ?`,
        model.BookingStatusCancelled, model.PaymentStatusRefunded, id, version)
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
