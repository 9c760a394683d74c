package service

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/payment"
    "github.com/recoverly/booking-api/internal/repository"
)

// ErrBadMetadata is returned when a checkout session's metadata does not
// describe a purchasable entity.  It indicates a session that was not
// created by this service.
var ErrBadMetadata = errors.New("checkout session metadata is invalid")

// CheckoutURLs carries the redirect targets for hosted checkout pages.
type CheckoutURLs struct {
    SuccessURL string
    CancelURL  string
}

// CheckoutInput describes what the customer is buying.  Kind selects which
// of the optional field groups applies.
type CheckoutInput struct {
    Kind          string
    CustomerEmail string
    ServiceType   string
    AmountCents   int64

    // team pass fields
    TeamName    string
    TotalPasses int

    // booking fields
    CustomerName    string
    AppointmentDate time.Time
    AppointmentTime string

    // service purchase fields
    Quantity int
}

// CompletedPurchase is the entity created when a paid session completes.
// Exactly one of the pointers is set, matching Kind.
type CompletedPurchase struct {
    Kind     string
    Pass     *model.TeamPass
    Booking  *model.Booking
    Purchase *model.ServicePurchase
}

// CheckoutService opens hosted checkout sessions and turns paid sessions
// into entities.  Completion is idempotent per session: an entity already
// recorded for the session id is returned, never duplicated.
type CheckoutService struct {
    passes    PassStore
    bookings  BookingStore
    purchases PurchaseStore
    payments  PaymentAPI
    urls      CheckoutURLs
    log       *logrus.Logger
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(passes PassStore, bookings BookingStore, purchases PurchaseStore, payments PaymentAPI, urls CheckoutURLs, log *logrus.Logger) *CheckoutService {
    return &CheckoutService{
        passes:    passes,
        bookings:  bookings,
        purchases: purchases,
        payments:  payments,
        urls:      urls,
        log:       log,
    }
}

// CreateSession opens a checkout session describing the purchase.  The
// entity itself is not created until the session is paid and completed;
// everything needed to build it travels in the session metadata.
func (s *CheckoutService) CreateSession(ctx context.Context, in CheckoutInput) (*payment.Session, error) {
    meta := map[string]string{
        "kind":           in.Kind,
        "customer_email": in.CustomerEmail,
        "service_type":   in.ServiceType,
    }
    var item payment.LineItem
    switch in.Kind {
    case model.EntityKindTeamPass:
        meta["team_name"] = in.TeamName
        meta["total_passes"] = strconv.Itoa(in.TotalPasses)
        item = payment.LineItem{
            Name:        fmt.Sprintf("Team pass (%d sessions)", in.TotalPasses),
            Description: in.ServiceType,
            Amount:      in.AmountCents,
            Currency:    "usd",
            Quantity:    1,
        }
    case model.EntityKindBooking:
        meta["customer_name"] = in.CustomerName
        meta["appointment_date"] = in.AppointmentDate.Format("2006-01-02")
        meta["appointment_time"] = in.AppointmentTime
        item = payment.LineItem{
            Name:        in.ServiceType + " session",
            Description: in.AppointmentDate.Format("2006-01-02") + " " + in.AppointmentTime,
            Amount:      in.AmountCents,
            Currency:    "usd",
            Quantity:    1,
        }
    case model.EntityKindServicePurchase:
        if in.Quantity <= 0 {
            in.Quantity = 1
        }
        meta["quantity"] = strconv.Itoa(in.Quantity)
        item = payment.LineItem{
            Name:     in.ServiceType,
            Amount:   in.AmountCents / int64(in.Quantity),
            Currency: "usd",
            Quantity: int64(in.Quantity),
        }
    default:
        return nil, ErrUnknownEntityKind
    }

    return s.payments.CreateCheckoutSession(ctx, payment.CreateSessionRequest{
        LineItems:  []payment.LineItem{item},
        SuccessURL: s.urls.SuccessURL,
        CancelURL:  s.urls.CancelURL,
        Metadata:   meta,
    })
}

// Complete verifies the session is paid and creates the entity its
// metadata describes.  Team passes are born with remaining equal to total
// and a fully populated ticket list, which starts the pass lifecycle.
func (s *CheckoutService) Complete(ctx context.Context, sessionID string) (*CompletedPurchase, error) {
    sess, err := s.payments.RetrieveSession(ctx, sessionID)
    if err != nil {
        return nil, fmt.Errorf("retrieve session: %w", err)
    }
    if sess.PaymentStatus != model.PaymentStatusPaid {
        return nil, ErrSessionUnpaid
    }
    kind := sess.Metadata["kind"]
    switch kind {
    case model.EntityKindTeamPass:
        return s.completePass(ctx, sess)
    case model.EntityKindBooking:
        return s.completeBooking(ctx, sess)
    case model.EntityKindServicePurchase:
        return s.completePurchase(ctx, sess)
    default:
        return nil, ErrBadMetadata
    }
}

func (s *CheckoutService) completePass(ctx context.Context, sess *payment.Session) (*CompletedPurchase, error) {
    if existing, err := s.passes.GetBySessionID(ctx, sess.ID); err == nil {
        return &CompletedPurchase{Kind: model.EntityKindTeamPass, Pass: existing}, nil
    } else if !errors.Is(err, repository.ErrPassNotFound) {
        return nil, err
    }
    total, err := strconv.Atoi(sess.Metadata["total_passes"])
    if err != nil || total <= 0 {
        return nil, ErrBadMetadata
    }
    tickets := make([]model.Ticket, 0, total)
    for n := 1; n <= total; n++ {
        tickets = append(tickets, model.Ticket{TicketID: uuid.NewString(), TicketNumber: n})
    }
    intentID := sess.PaymentIntentID
    sessionID := sess.ID
    p := &model.TeamPass{
        PurchaserEmail:        sess.Metadata["customer_email"],
        TeamName:              sess.Metadata["team_name"],
        TotalPasses:           total,
        RemainingPasses:       total,
        ServiceType:           sess.Metadata["service_type"],
        PaymentStatus:         model.PaymentStatusPaid,
        PurchaseAmountCents:   sess.Amount,
        StripePaymentIntentID: &intentID,
        StripeSessionID:       &sessionID,
        Tickets:               tickets,
    }
    if err := s.passes.Create(ctx, p); err != nil {
        return nil, err
    }
    s.log.WithFields(logrus.Fields{"pass_id": p.ID, "total": total}).Info("team pass created")
    return &CompletedPurchase{Kind: model.EntityKindTeamPass, Pass: p}, nil
}

func (s *CheckoutService) completeBooking(ctx context.Context, sess *payment.Session) (*CompletedPurchase, error) {
    if existing, err := s.bookings.GetBySessionID(ctx, sess.ID); err == nil {
        return &CompletedPurchase{Kind: model.EntityKindBooking, Booking: existing}, nil
    } else if !errors.Is(err, repository.ErrBookingNotFound) {
        return nil, err
    }
    date, err := time.Parse("2006-01-02", sess.Metadata["appointment_date"])
    if err != nil {
        return nil, ErrBadMetadata
    }
    intentID := sess.PaymentIntentID
    sessionID := sess.ID
    b := &model.Booking{
        CustomerEmail:         sess.Metadata["customer_email"],
        CustomerName:          sess.Metadata["customer_name"],
        ServiceType:           sess.Metadata["service_type"],
        AppointmentDate:       date,
        AppointmentTime:       sess.Metadata["appointment_time"],
        Status:                model.BookingStatusConfirmed,
        PaymentStatus:         model.PaymentStatusPaid,
        TotalAmountCents:      sess.Amount,
        StripePaymentIntentID: &intentID,
        StripeSessionID:       &sessionID,
    }
    if err := s.bookings.Create(ctx, b); err != nil {
        return nil, err
    }
    s.log.WithField("booking_id", b.ID).Info("booking created")
    return &CompletedPurchase{Kind: model.EntityKindBooking, Booking: b}, nil
}

func (s *CheckoutService) completePurchase(ctx context.Context, sess *payment.Session) (*CompletedPurchase, error) {
    if existing, err := s.purchases.GetBySessionID(ctx, sess.ID); err == nil {
        return &CompletedPurchase{Kind: model.EntityKindServicePurchase, Purchase: existing}, nil
    } else if !errors.Is(err, repository.ErrPurchaseNotFound) {
        return nil, err
    }
    qty, err := strconv.Atoi(sess.Metadata["quantity"])
    if err != nil || qty <= 0 {
        qty = 1
    }
    sessionID := sess.ID
    p := &model.ServicePurchase{
        CustomerEmail:   sess.Metadata["customer_email"],
        ServiceType:     sess.Metadata["service_type"],
        Quantity:        qty,
        AmountCents:     sess.Amount,
        PaymentStatus:   model.PaymentStatusPaid,
        StripeSessionID: &sessionID,
    }
    if err := s.purchases.Create(ctx, p); err != nil {
        return nil, err
    }
    s.log.WithField("purchase_id", p.ID).Info("service purchase created")
    return &CompletedPurchase{Kind: model.EntityKindServicePurchase, Purchase: p}, nil
}
