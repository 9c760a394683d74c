// Package payment is a thin HTTP client for the hosted payment-session API.
// The API is Stripe-shaped: checkout sessions carry line items, redirect
// URLs and a metadata map, and refunds are issued against a payment-intent
// reference for an exact amount in minor units.
package payment

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/google/uuid"
)

// LineItem describes one purchasable row of a checkout session.
type LineItem struct {
    Name        string `json:"name"`
    Description string `json:"description,omitempty"`
    Amount      int64  `json:"amount"`   // unit price in minor units
    Currency    string `json:"currency"`
    Quantity    int64  `json:"quantity"`
}

// Session is the payment API's checkout-session resource.
type Session struct {
    ID              string            `json:"id"`
    URL             string            `json:"url"`
    Amount          int64             `json:"amount"`
    Currency        string            `json:"currency"`
    PaymentStatus   string            `json:"payment_status"`
    PaymentIntentID string            `json:"payment_intent"`
    CustomerEmail   string            `json:"customer_email"`
    Metadata        map[string]string `json:"metadata"`
}

// Refund is the payment API's refund resource.
type Refund struct {
    ID     string `json:"id"`
    Amount int64  `json:"amount"`
    Status string `json:"status"`
}

// CreateSessionRequest is the body of POST /v1/checkout/sessions on the
// payment API.
type CreateSessionRequest struct {
    LineItems  []LineItem        `json:"line_items"`
    SuccessURL string            `json:"success_url"`
    CancelURL  string            `json:"cancel_url"`
    Metadata   map[string]string `json:"metadata,omitempty"`
}

// APIError is returned when the payment API answers with a non-2xx status.
type APIError struct {
    StatusCode int
    Message    string
}

func (e *APIError) Error() string {
    return fmt.Sprintf("payment api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the payment API over HTTP with bearer authentication.
// All mutating calls carry an Idempotency-Key header so network retries
// cannot create duplicate sessions or refunds.
type Client struct {
    baseURL string
    apiKey  string
    http    *http.Client
}

// New returns a Client for the given base URL and API key.
func New(baseURL, apiKey string) *Client {
    return &Client{
        baseURL: baseURL,
        apiKey:  apiKey,
        http:    &http.Client{Timeout: 15 * time.Second},
    }
}

// CreateCheckoutSession opens a hosted checkout session and returns its id
// and redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
    var s Session
    if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", req, &s, uuid.NewString()); err != nil {
        return nil, err
    }
    return &s, nil
}

// RetrieveSession fetches a checkout session by id, including its payment
// status and payment-intent reference once paid.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
    var s Session
    if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &s, ""); err != nil {
        return nil, err
    }
    return &s, nil
}

// CreateRefund refunds the exact amount, in minor units, against a
// payment-intent reference.  The idempotency key is derived from the
// reference, so retrying a refund for the same payment can never move the
// money twice.
func (c *Client) CreateRefund(ctx context.Context, paymentRef string, amountCents int64) (*Refund, error) {
    body := map[string]any{
        "payment_intent": paymentRef,
        "amount":         amountCents,
    }
    var r Refund
    if err := c.do(ctx, http.MethodPost, "/v1/refunds", body, &r, "refund-"+paymentRef); err != nil {
        return nil, err
    }
    return &r, nil
}

// do executes one JSON request/response exchange against the payment API.
func (c *Client) do(ctx context.Context, method, path string, body, out any, idemKey string) error {
    var reader io.Reader
    if body != nil {
        buf, err := json.Marshal(body)
        if err != nil {
            return err
        }
        reader = bytes.NewReader(buf)
    }
    req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
    if err != nil {
        return err
    }
    req.Header.Set("Authorization", "Bearer "+c.apiKey)
    if body != nil {
        req.Header.Set("Content-Type", "application/json")
    }
    if idemKey != "" {
        req.Header.Set("Idempotency-Key", idemKey)
    }
    resp, err := c.http.Do(req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
        return &APIError{StatusCode: resp.StatusCode, Message: string(msg)}
    }
    if out == nil {
        return nil
    }
    return json.NewDecoder(resp.Body).Decode(out)
}
