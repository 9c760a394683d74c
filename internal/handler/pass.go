package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/service"
    "github.com/recoverly/booking-api/internal/utils"
)

// PassHandler serves team-pass lookups and customer-facing redemption.
// Lookup endpoints are public so pass holders can check their balance from
// an emailed link without an account; redemption endpoints are public as
// well and rely on the unguessable pass and ticket identifiers.
type PassHandler struct {
    Passes  service.PassStore
    Redeems *service.RedemptionService
    Log     *logrus.Logger
}

// NewPassHandler constructs a PassHandler.
func NewPassHandler(passes service.PassStore, redeems *service.RedemptionService, log *logrus.Logger) *PassHandler {
    return &PassHandler{Passes: passes, Redeems: redeems, Log: log}
}

// ----- DTOs -----

type ticketResp struct {
    TicketID     string     `json:"ticket_id"`
    TicketNumber int        `json:"ticket_number"`
    IsUsed       bool       `json:"is_used"`
    UsedAt       *time.Time `json:"used_at,omitempty"`
    UsedBy       *string    `json:"used_by,omitempty"`
    ServiceType  *string    `json:"service_type,omitempty"`
}

type redemptionResp struct {
    RedeemedAt  time.Time `json:"redeemed_at"`
    RedeemedBy  string    `json:"redeemed_by"`
    ServiceType string    `json:"service_type"`
}

type passResp struct {
    ID              uint64           `json:"id"`
    PurchaserEmail  string           `json:"purchaser_email"`
    TeamName        string           `json:"team_name"`
    TotalPasses     int              `json:"total_passes"`
    RemainingPasses int              `json:"remaining_passes"`
    ServiceType     string           `json:"service_type"`
    PaymentStatus   string           `json:"payment_status"`
    PurchaseAmount  float64          `json:"purchase_amount"`
    Tickets         []ticketResp     `json:"individual_tickets"`
    History         []redemptionResp `json:"redemption_history,omitempty"`
}

type redeemReq struct {
    ServiceType string `json:"service_type" validate:"required"`
}

// passToResp maps a model to its response shape.  remaining_passes is the
// derived balance, never the raw stored column.
func passToResp(p *model.TeamPass, withHistory bool) passResp {
    resp := passResp{
        ID:              p.ID,
        PurchaserEmail:  p.PurchaserEmail,
        TeamName:        p.TeamName,
        TotalPasses:     p.TotalPasses,
        RemainingPasses: p.Remaining(),
        ServiceType:     p.ServiceType,
        PaymentStatus:   p.PaymentStatus,
        PurchaseAmount:  utils.FromMinorUnits(p.PurchaseAmountCents),
        Tickets:         make([]ticketResp, 0, len(p.Tickets)),
    }
    for _, t := range p.Tickets {
        resp.Tickets = append(resp.Tickets, ticketResp{
            TicketID:     t.TicketID,
            TicketNumber: t.TicketNumber,
            IsUsed:       t.IsUsed,
            UsedAt:       t.UsedAt,
            UsedBy:       t.UsedBy,
            ServiceType:  t.ServiceType,
        })
    }
    if withHistory {
        for _, r := range p.History {
            resp.History = append(resp.History, redemptionResp{
                RedeemedAt:  r.RedeemedAt,
                RedeemedBy:  r.RedeemedBy,
                ServiceType: r.ServiceType,
            })
        }
    }
    return resp
}

// GetPass handles GET /v1/passes/:id.  Public; returns the pass with its
// ticket list and history.
func (h *PassHandler) GetPass(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pass id"})
    }
    p, err := h.Passes.GetByID(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, passToResp(p, true))
}

// ListPasses handles GET /v1/passes?email=.  Public; returns all passes
// purchased by the given email, without history.
func (h *PassHandler) ListPasses(c echo.Context) error {
    email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
    if email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
    }
    passes, err := h.Passes.FilterByEmail(c.Request().Context(), email)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    out := make([]passResp, 0, len(passes))
    for i := range passes {
        out = append(out, passToResp(&passes[i], false))
    }
    return c.JSON(http.StatusOK, echo.Map{"passes": out})
}

// RedeemSelf handles POST /v1/passes/:id/redeem.  The pass holder consumes
// the lowest-numbered unused ticket.
func (h *PassHandler) RedeemSelf(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pass id"})
    }
    var req redeemReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_type is required"})
    }
    p, err := h.Redeems.RedeemSelf(c.Request().Context(), id, req.ServiceType)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "pass": passToResp(p, true)})
}

// RedeemSharedTicket handles POST /v1/passes/:id/tickets/:ticketId/redeem.
// Reached from a shareable per-ticket link; no authentication.
func (h *PassHandler) RedeemSharedTicket(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pass id"})
    }
    ticketID := c.Param("ticketId")
    if ticketID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    var req redeemReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_type is required"})
    }
    p, err := h.Redeems.RedeemSharedTicket(c.Request().Context(), id, ticketID, req.ServiceType)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "pass": passToResp(p, true)})
}
