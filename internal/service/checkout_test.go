package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/payment"
)

func checkoutEnv(payments *fakePaymentAPI) (*CheckoutService, *fakePassStore, *fakeBookingStore, *fakePurchaseStore) {
    passes := newFakePassStore()
    bookings := newFakeBookingStore()
    purchases := newFakePurchaseStore()
    urls := CheckoutURLs{SuccessURL: "https://app.example.com/done", CancelURL: "https://app.example.com/cancel"}
    svc := NewCheckoutService(passes, bookings, purchases, payments, urls, testLogger())
    return svc, passes, bookings, purchases
}

func TestCreateSession(t *testing.T) {
    ctx := context.Background()

    t.Run("team pass metadata carries the pass shape", func(t *testing.T) {
        payments := newFakePaymentAPI()
        svc, _, _, _ := checkoutEnv(payments)

        _, err := svc.CreateSession(ctx, CheckoutInput{
            Kind:          model.EntityKindTeamPass,
            CustomerEmail: "owner@example.com",
            ServiceType:   "cold-plunge",
            AmountCents:   50000,
            TeamName:      "north crew",
            TotalPasses:   10,
        })
        if err != nil {
            t.Fatalf("CreateSession: %v", err)
        }
        req := payments.createdSessions[0]
        if req.Metadata["kind"] != model.EntityKindTeamPass || req.Metadata["total_passes"] != "10" {
            t.Fatalf("metadata = %+v", req.Metadata)
        }
        if req.SuccessURL != "https://app.example.com/done" {
            t.Fatalf("success url = %s", req.SuccessURL)
        }
        if len(req.LineItems) != 1 || req.LineItems[0].Amount != 50000 {
            t.Fatalf("line items = %+v", req.LineItems)
        }
    })

    t.Run("service purchase splits amount across quantity", func(t *testing.T) {
        payments := newFakePaymentAPI()
        svc, _, _, _ := checkoutEnv(payments)

        _, err := svc.CreateSession(ctx, CheckoutInput{
            Kind:          model.EntityKindServicePurchase,
            CustomerEmail: "bob@example.com",
            ServiceType:   "stretch",
            AmountCents:   8000,
            Quantity:      2,
        })
        if err != nil {
            t.Fatalf("CreateSession: %v", err)
        }
        item := payments.createdSessions[0].LineItems[0]
        if item.Amount != 4000 || item.Quantity != 2 {
            t.Fatalf("line item = %+v, want unit price 4000 x2", item)
        }
    })

    t.Run("unknown kind", func(t *testing.T) {
        svc, _, _, _ := checkoutEnv(newFakePaymentAPI())
        if _, err := svc.CreateSession(ctx, CheckoutInput{Kind: "gift_card"}); !errors.Is(err, ErrUnknownEntityKind) {
            t.Fatalf("err = %v, want ErrUnknownEntityKind", err)
        }
    })
}

func paidPassSession(id string) *payment.Session {
    return &payment.Session{
        ID:              id,
        Amount:          50000,
        PaymentStatus:   model.PaymentStatusPaid,
        PaymentIntentID: "pi_sess",
        Metadata: map[string]string{
            "kind":           model.EntityKindTeamPass,
            "customer_email": "owner@example.com",
            "service_type":   "cold-plunge",
            "team_name":      "north crew",
            "total_passes":   "3",
        },
    }
}

func TestCompleteCheckout(t *testing.T) {
    ctx := context.Background()

    t.Run("paid pass session creates a fully ticketed pass", func(t *testing.T) {
        payments := newFakePaymentAPI(paidPassSession("cs_test_1"))
        svc, passes, _, _ := checkoutEnv(payments)

        got, err := svc.Complete(ctx, "cs_test_1")
        if err != nil {
            t.Fatalf("Complete: %v", err)
        }
        p := got.Pass
        if p == nil || got.Kind != model.EntityKindTeamPass {
            t.Fatalf("completed = %+v", got)
        }
        if p.TotalPasses != 3 || p.Remaining() != 3 || len(p.Tickets) != 3 {
            t.Fatalf("pass = total %d remaining %d tickets %d", p.TotalPasses, p.Remaining(), len(p.Tickets))
        }
        for i, tk := range p.Tickets {
            if tk.TicketNumber != i+1 || tk.TicketID == "" || tk.IsUsed {
                t.Fatalf("ticket %d = %+v", i, tk)
            }
        }
        if p.StripePaymentIntentID == nil || *p.StripePaymentIntentID != "pi_sess" {
            t.Fatalf("payment intent = %v", p.StripePaymentIntentID)
        }
        if _, err := passes.GetByID(ctx, p.ID); err != nil {
            t.Fatalf("pass not persisted: %v", err)
        }
    })

    t.Run("completing the same session twice returns one pass", func(t *testing.T) {
        payments := newFakePaymentAPI(paidPassSession("cs_test_1"))
        svc, passes, _, _ := checkoutEnv(payments)

        first, err := svc.Complete(ctx, "cs_test_1")
        if err != nil {
            t.Fatalf("first Complete: %v", err)
        }
        second, err := svc.Complete(ctx, "cs_test_1")
        if err != nil {
            t.Fatalf("second Complete: %v", err)
        }
        if first.Pass.ID != second.Pass.ID {
            t.Fatalf("duplicate pass created: %d vs %d", first.Pass.ID, second.Pass.ID)
        }
        if len(passes.passes) != 1 {
            t.Fatalf("stored passes = %d, want 1", len(passes.passes))
        }
    })

    t.Run("unpaid session is rejected", func(t *testing.T) {
        s := paidPassSession("cs_test_1")
        s.PaymentStatus = "unpaid"
        svc, _, _, _ := checkoutEnv(newFakePaymentAPI(s))

        if _, err := svc.Complete(ctx, "cs_test_1"); !errors.Is(err, ErrSessionUnpaid) {
            t.Fatalf("err = %v, want ErrSessionUnpaid", err)
        }
    })

    t.Run("paid booking session creates a confirmed booking", func(t *testing.T) {
        sess := &payment.Session{
            ID:              "cs_test_2",
            Amount:          12000,
            PaymentStatus:   model.PaymentStatusPaid,
            PaymentIntentID: "pi_book",
            Metadata: map[string]string{
                "kind":             model.EntityKindBooking,
                "customer_email":   "alice@example.com",
                "customer_name":    "Alice",
                "service_type":     "massage",
                "appointment_date": "2026-06-01",
                "appointment_time": "14:00",
            },
        }
        svc, _, bookings, _ := checkoutEnv(newFakePaymentAPI(sess))

        got, err := svc.Complete(ctx, "cs_test_2")
        if err != nil {
            t.Fatalf("Complete: %v", err)
        }
        b := got.Booking
        if b == nil || b.Status != model.BookingStatusConfirmed || b.PaymentStatus != model.PaymentStatusPaid {
            t.Fatalf("booking = %+v", b)
        }
        want := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
        if !b.AppointmentAt().Equal(want) {
            t.Fatalf("appointment = %v, want %v", b.AppointmentAt(), want)
        }
        if _, err := bookings.GetBySessionID(ctx, "cs_test_2"); err != nil {
            t.Fatalf("booking not persisted: %v", err)
        }
    })

    t.Run("malformed metadata", func(t *testing.T) {
        s := paidPassSession("cs_test_1")
        s.Metadata["total_passes"] = "zero"
        svc, _, _, _ := checkoutEnv(newFakePaymentAPI(s))

        if _, err := svc.Complete(ctx, "cs_test_1"); !errors.Is(err, ErrBadMetadata) {
            t.Fatalf("err = %v, want ErrBadMetadata", err)
        }
    })
}
