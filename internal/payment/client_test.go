package payment

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
)

func TestCreateRefund(t *testing.T) {
    t.Run("sends a reference-derived idempotency key", func(t *testing.T) {
        var gotKey, gotAuth string
        var gotBody map[string]any
        srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            if r.Method != http.MethodPost || r.URL.Path != "/v1/refunds" {
                t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
            }
            gotKey = r.Header.Get("Idempotency-Key")
            gotAuth = r.Header.Get("Authorization")
            _ = json.NewDecoder(r.Body).Decode(&gotBody)
            _ = json.NewEncoder(w).Encode(Refund{ID: "re_1", Amount: 12000, Status: "succeeded"})
        }))
        defer srv.Close()

        c := New(srv.URL, "sk_test_key")
        ref, err := c.CreateRefund(context.Background(), "pi_123", 12000)
        if err != nil {
            t.Fatalf("CreateRefund: %v", err)
        }
        if ref.ID != "re_1" || ref.Amount != 12000 {
            t.Fatalf("refund = %+v", ref)
        }
        if gotKey != "refund-pi_123" {
            t.Fatalf("idempotency key = %q, want refund-pi_123", gotKey)
        }
        if gotAuth != "Bearer sk_test_key" {
            t.Fatalf("authorization = %q", gotAuth)
        }
        if gotBody["payment_intent"] != "pi_123" || gotBody["amount"] != float64(12000) {
            t.Fatalf("body = %+v", gotBody)
        }
    })

    t.Run("non-2xx surfaces as APIError", func(t *testing.T) {
        srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            http.Error(w, "charge already refunded", http.StatusConflict)
        }))
        defer srv.Close()

        c := New(srv.URL, "sk_test_key")
        _, err := c.CreateRefund(context.Background(), "pi_123", 12000)
        var apiErr *APIError
        if !errors.As(err, &apiErr) {
            t.Fatalf("err = %v, want APIError", err)
        }
        if apiErr.StatusCode != http.StatusConflict {
            t.Fatalf("status = %d, want 409", apiErr.StatusCode)
        }
    })
}

func TestRetrieveSession(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/v1/checkout/sessions/cs_test_42" {
            t.Errorf("unexpected path %s", r.URL.Path)
        }
        _ = json.NewEncoder(w).Encode(Session{
            ID:              "cs_test_42",
            PaymentStatus:   "paid",
            PaymentIntentID: "pi_42",
            Metadata:        map[string]string{"kind": "booking"},
        })
    }))
    defer srv.Close()

    c := New(srv.URL, "sk_test_key")
    s, err := c.RetrieveSession(context.Background(), "cs_test_42")
    if err != nil {
        t.Fatalf("RetrieveSession: %v", err)
    }
    if s.PaymentIntentID != "pi_42" || s.Metadata["kind"] != "booking" {
        t.Fatalf("session = %+v", s)
    }
}

func TestCreateCheckoutSession(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Header.Get("Idempotency-Key") == "" {
            t.Errorf("missing idempotency key on session create")
        }
        var req CreateSessionRequest
        _ = json.NewDecoder(r.Body).Decode(&req)
        _ = json.NewEncoder(w).Encode(Session{
            ID:       "cs_test_new",
            URL:      "https://pay.example.com/cs_test_new",
            Metadata: req.Metadata,
        })
    }))
    defer srv.Close()

    c := New(srv.URL, "sk_test_key")
    s, err := c.CreateCheckoutSession(context.Background(), CreateSessionRequest{
        LineItems:  []LineItem{{Name: "Team pass (10 sessions)", Amount: 50000, Currency: "usd", Quantity: 1}},
        SuccessURL: "https://app.example.com/done",
        CancelURL:  "https://app.example.com/cancel",
        Metadata:   map[string]string{"kind": "team_pass"},
    })
    if err != nil {
        t.Fatalf("CreateCheckoutSession: %v", err)
    }
    if s.ID != "cs_test_new" || s.Metadata["kind"] != "team_pass" {
        t.Fatalf("session = %+v", s)
    }
}
