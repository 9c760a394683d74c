package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/service"
    "github.com/recoverly/booking-api/internal/utils"
)

// BookingHandler serves booking lookup, cancellation and rescheduling.
// Bookings are created through checkout completion, not directly.
type BookingHandler struct {
    Bookings service.BookingStore
    Svc      *service.BookingService
    Log      *logrus.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings service.BookingStore, svc *service.BookingService, log *logrus.Logger) *BookingHandler {
    return &BookingHandler{Bookings: bookings, Svc: svc, Log: log}
}

type bookingResp struct {
    ID              uint64  `json:"id"`
    CustomerEmail   string  `json:"customer_email"`
    CustomerName    string  `json:"customer_name"`
    ServiceType     string  `json:"service_type"`
    AppointmentDate string  `json:"appointment_date"`
    AppointmentTime string  `json:"appointment_time"`
    Status          string  `json:"status"`
    PaymentStatus   string  `json:"payment_status"`
    TotalAmount     float64 `json:"total_amount"`
}

type rescheduleReq struct {
    AppointmentDate string `json:"appointment_date" validate:"required"`
    AppointmentTime string `json:"appointment_time" validate:"required"`
}

func bookingToResp(b *model.Booking) bookingResp {
    return bookingResp{
        ID:              b.ID,
        CustomerEmail:   b.CustomerEmail,
        CustomerName:    b.CustomerName,
        ServiceType:     b.ServiceType,
        AppointmentDate: b.AppointmentDate.Format("2006-01-02"),
        AppointmentTime: b.AppointmentTime,
        Status:          b.Status,
        PaymentStatus:   b.PaymentStatus,
        TotalAmount:     utils.FromMinorUnits(b.TotalAmountCents),
    }
}

func bookingID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id != 0
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    id, ok := bookingID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Bookings.GetByID(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, bookingToResp(b))
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  Outside the 24-hour
// window the booking is refunded in full and marked cancelled; inside it
// the request is rejected with the remaining hours and nothing changes.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    id, ok := bookingID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    f, err := h.Svc.Cancel(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":       true,
        "refund_amount": utils.FromMinorUnits(f.AmountCents),
        "refund_state":  f.State,
    })
}

// RescheduleBooking handles POST /v1/bookings/:id/reschedule.  Subject to
// the same 24-hour window as cancellation, evaluated against the current
// appointment.
func (h *BookingHandler) RescheduleBooking(c echo.Context) error {
    id, ok := bookingID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req rescheduleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "appointment_date and appointment_time are required"})
    }
    date, err := time.Parse("2006-01-02", req.AppointmentDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment_date"})
    }
    if _, err := time.Parse("15:04", req.AppointmentTime); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment_time"})
    }
    b, err := h.Svc.Reschedule(c.Request().Context(), id, date, req.AppointmentTime)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": bookingToResp(b)})
}
