package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/repository"
    "github.com/recoverly/booking-api/internal/service"
)

// AdminHandler groups staff-only operations: redemption on behalf of a
// customer, the ticket backfill job, refund dispatch/reconciliation and
// staff account provisioning.  Routes using it sit behind JWTAuth plus the
// matching capability check, so handlers only read the acting identity
// from the context.
type AdminHandler struct {
    Redeems    *service.RedemptionService
    Backfill   *service.BackfillService
    Refunds    *service.RefundService
    Users      *repository.UserRepo
    BcryptCost int
    Log        *logrus.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(redeems *service.RedemptionService, backfill *service.BackfillService, refunds *service.RefundService, users *repository.UserRepo, bcryptCost int, log *logrus.Logger) *AdminHandler {
    return &AdminHandler{Redeems: redeems, Backfill: backfill, Refunds: refunds, Users: users, BcryptCost: bcryptCost, Log: log}
}

type refundReq struct {
    EntityKind string `json:"entity_kind" validate:"required,oneof=booking team_pass service_purchase"`
    EntityID   uint64 `json:"entity_id" validate:"required"`
}

// RedeemPass handles POST /v1/admin/passes/:id/redeem.  The staff member's
// email from the JWT is recorded as the redeeming actor.
func (h *AdminHandler) RedeemPass(c echo.Context) error {
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
    email := currentEmail(c)
    if email == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    p, err := h.Redeems.RedeemAsAdmin(c.Request().Context(), id, req.ServiceType, email)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "pass": passToResp(p, true)})
}

// RunBackfill handles POST /v1/admin/passes/backfill.  Synthesizes ticket
// lists for legacy passes; safe to re-run.
func (h *AdminHandler) RunBackfill(c echo.Context) error {
    rep, err := h.Backfill.Run(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "report": rep})
}

// DispatchRefund handles POST /v1/admin/refunds.  Issues a full refund for
// the named entity through the refund saga.
func (h *AdminHandler) DispatchRefund(c echo.Context) error {
    var req refundReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "entity_kind and entity_id are required"})
    }
    f, err := h.Refunds.Dispatch(c.Request().Context(), req.EntityKind, req.EntityID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":     true,
        "payment_ref": f.PaymentRef,
        "amount":      f.AmountCents,
        "state":       f.State,
    })
}

// ReconcileRefunds handles POST /v1/admin/refunds/reconcile.  Re-applies
// entity updates for refunds that settled but never synced.
func (h *AdminHandler) ReconcileRefunds(c echo.Context) error {
    synced, err := h.Refunds.Reconcile(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "synced": synced})
}

type createUserReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=8"`
    Role     string `json:"role" validate:"required,oneof=ADMIN STAFF"`
}

// CreateStaffUser handles POST /v1/admin/users.  There is no public
// registration; every account is provisioned here by an admin.
func (h *AdminHandler) CreateStaffUser(c echo.Context) error {
    var req createUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password (min 8 chars) and role (ADMIN or STAFF) are required"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))

    id, err := h.Users.Create(c.Request().Context(), req.Email, req.Password, req.Role, h.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
        }
        return respondError(c, h.Log, err)
    }
    h.Log.WithFields(logrus.Fields{"user_id": id, "role": req.Role}).Info("staff account created")
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "user_id": id})
}
