package handler

import (
    "errors"
    "net/http"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/payment"
    "github.com/recoverly/booking-api/internal/repository"
    "github.com/recoverly/booking-api/internal/service"
)

// Validator adapts go-playground/validator to Echo's Validator interface.
// Request DTOs declare their constraints with `validate` struct tags and
// handlers call c.Validate after binding.
type Validator struct {
    v *validator.Validate
}

// NewValidator returns a Validator ready to install on an Echo instance.
func NewValidator() *Validator { return &Validator{v: validator.New()} }

// Validate implements echo.Validator.
func (val *Validator) Validate(i interface{}) error { return val.v.Struct(i) }

// currentEmail returns the authenticated user's email claim, or the empty
// string when the request is unauthenticated.
func currentEmail(c echo.Context) string {
    if v, ok := c.Get("email").(string); ok {
        return v
    }
    return ""
}

// respondError translates service and repository failures into the JSON
// error contract.  Internal detail is logged, never returned: the response
// body carries a fixed message per outcome.
func respondError(c echo.Context, log *logrus.Logger, err error) error {
    var windowErr *service.WindowClosedError
    var apiErr *payment.APIError
    switch {
    case errors.Is(err, repository.ErrPassNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "pass not found"})
    case errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, repository.ErrPurchaseNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase not found"})
    case errors.Is(err, service.ErrTicketNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
    case errors.Is(err, service.ErrExhausted):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no passes remaining"})
    case errors.Is(err, service.ErrTicketAlreadyUsed):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket already used"})
    case errors.Is(err, service.ErrNoTicketAvailable):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no unused ticket available"})
    case errors.Is(err, service.ErrNoPaymentReference):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no payment reference on record"})
    case errors.Is(err, service.ErrAlreadyCancelled):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking already cancelled"})
    case errors.Is(err, service.ErrSessionUnpaid):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "checkout session not paid"})
    case errors.Is(err, service.ErrAppointmentInPast):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "new appointment must be in the future"})
    case errors.Is(err, service.ErrUnknownEntityKind), errors.Is(err, service.ErrBadMetadata):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    case errors.As(err, &windowErr):
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":       "appointments can only be changed at least 24 hours in advance",
            "hours_until": windowErr.HoursUntil,
        })
    case errors.Is(err, repository.ErrVersionConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent update, please retry"})
    case errors.As(err, &apiErr):
        log.WithError(err).Error("payment api call failed")
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider error"})
    default:
        log.WithError(err).WithField("path", c.Path()).Error("request failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
