package model

import "time"

// ServicePurchase is a one-off purchase of an individual service.  Unlike
// bookings and team passes it does not store a payment-intent reference;
// refunds resolve the reference indirectly through the stored checkout
// session id.
type ServicePurchase struct {
    ID              uint64
    CustomerEmail   string
    ServiceType     string
    Quantity        int
    AmountCents     int64
    PaymentStatus   string
    StripeSessionID *string
    Version         uint64
    CreatedAt       time.Time
    UpdatedAt       time.Time
}
