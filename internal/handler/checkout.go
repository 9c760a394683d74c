package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/service"
    "github.com/recoverly/booking-api/internal/utils"
)

// CheckoutHandler opens payment sessions and completes paid ones.  These
// endpoints are public: the payment page is where the customer proves
// anything, and completion only trusts what the payment API reports.
type CheckoutHandler struct {
    Svc *service.CheckoutService
    Log *logrus.Logger
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(svc *service.CheckoutService, log *logrus.Logger) *CheckoutHandler {
    return &CheckoutHandler{Svc: svc, Log: log}
}

type createSessionReq struct {
    Kind          string  `json:"kind" validate:"required,oneof=booking team_pass service_purchase"`
    CustomerEmail string  `json:"customer_email" validate:"required,email"`
    ServiceType   string  `json:"service_type" validate:"required"`
    Amount        float64 `json:"amount" validate:"required,gt=0"`

    TeamName    string `json:"team_name,omitempty"`
    TotalPasses int    `json:"total_passes,omitempty"`

    CustomerName    string `json:"customer_name,omitempty"`
    AppointmentDate string `json:"appointment_date,omitempty"`
    AppointmentTime string `json:"appointment_time,omitempty"`

    Quantity int `json:"quantity,omitempty"`
}

type completeReq struct {
    SessionID string `json:"session_id" validate:"required"`
}

// CreateSession handles POST /v1/checkout/sessions.  The decimal amount is
// converted to minor units exactly once, here at the boundary.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
    var req createSessionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind, customer_email, service_type and amount are required"})
    }

    in := service.CheckoutInput{
        Kind:          req.Kind,
        CustomerEmail: req.CustomerEmail,
        ServiceType:   req.ServiceType,
        AmountCents:   utils.ToMinorUnits(req.Amount),
        TeamName:      req.TeamName,
        TotalPasses:   req.TotalPasses,
        CustomerName:  req.CustomerName,
        Quantity:      req.Quantity,
    }
    switch req.Kind {
    case model.EntityKindTeamPass:
        if req.TotalPasses <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_passes must be positive"})
        }
    case model.EntityKindBooking:
        date, err := time.Parse("2006-01-02", req.AppointmentDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment_date"})
        }
        if _, err := time.Parse("15:04", req.AppointmentTime); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment_time"})
        }
        in.AppointmentDate = date
        in.AppointmentTime = req.AppointmentTime
    }

    sess, err := h.Svc.CreateSession(c.Request().Context(), in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"session_id": sess.ID, "url": sess.URL})
}

// Complete handles POST /v1/checkout/complete.  Idempotent per session id:
// replaying a completion returns the entity created the first time.
func (h *CheckoutHandler) Complete(c echo.Context) error {
    var req completeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
    }
    done, err := h.Svc.Complete(c.Request().Context(), req.SessionID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    resp := echo.Map{"success": true, "kind": done.Kind}
    switch done.Kind {
    case model.EntityKindTeamPass:
        resp["pass"] = passToResp(done.Pass, false)
    case model.EntityKindBooking:
        resp["booking"] = bookingToResp(done.Booking)
    case model.EntityKindServicePurchase:
        resp["purchase"] = echo.Map{
            "id":             done.Purchase.ID,
            "customer_email": done.Purchase.CustomerEmail,
            "service_type":   done.Purchase.ServiceType,
            "quantity":       done.Purchase.Quantity,
            "amount":         utils.FromMinorUnits(done.Purchase.AmountCents),
            "payment_status": done.Purchase.PaymentStatus,
        }
    }
    return c.JSON(http.StatusCreated, resp)
}
