package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/recoverly/booking-api/internal/handler"    // handlers that implement the endpoints
    "github.com/recoverly/booking-api/internal/middleware" // JWT authentication and capability enforcement
    "github.com/recoverly/booking-api/internal/policy"     // capability definitions
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check,
// used by load balancers to verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the staff authentication endpoints.  Login and
// refresh live under /v1/auth and need no token; /v1/me sits behind
// JWTAuth so staff tooling can introspect its session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers the customer-facing endpoints.  None of these
// require a token: passes are addressed by unguessable identifiers, and
// checkout trusts only what the payment API reports.  The optional cache
// middleware (nil-safe) is applied to the read-only pass lookups.
func RegisterPublic(e *echo.Echo, p *handler.PassHandler, b *handler.BookingHandler, ck *handler.CheckoutHandler, cache echo.MiddlewareFunc) {
    // Pass lookups, response-cached when Redis is available.
    if cache != nil {
        e.GET("/v1/passes/:id", p.GetPass, cache)
        e.GET("/v1/passes", p.ListPasses, cache)
    } else {
        e.GET("/v1/passes/:id", p.GetPass)
        e.GET("/v1/passes", p.ListPasses)
    }

    // Redemption by the pass holder and via shared per-ticket links.
    e.POST("/v1/passes/:id/redeem", p.RedeemSelf)
    e.POST("/v1/passes/:id/tickets/:ticketId/redeem", p.RedeemSharedTicket)

    // Bookings: lookup, cancel, reschedule.  Creation happens through
    // checkout completion.
    e.GET("/v1/bookings/:id", b.GetBooking)
    e.POST("/v1/bookings/:id/cancel", b.CancelBooking)
    e.POST("/v1/bookings/:id/reschedule", b.RescheduleBooking)

    // Checkout sessions.
    e.POST("/v1/checkout/sessions", ck.CreateSession)
    e.POST("/v1/checkout/complete", ck.Complete)
}

// RegisterAdmin registers staff-only operations.  Every route sits behind
// JWTAuth plus the specific capability it needs, evaluated by the shared
// policy table.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))

    g.POST("/passes/:id/redeem", a.RedeemPass, middleware.RequireCapability(policy.CapRedeemAnyPass))
    g.POST("/passes/backfill", a.RunBackfill, middleware.RequireCapability(policy.CapBackfillPasses))
    g.POST("/refunds", a.DispatchRefund, middleware.RequireCapability(policy.CapDispatchRefunds))
    g.POST("/refunds/reconcile", a.ReconcileRefunds, middleware.RequireCapability(policy.CapDispatchRefunds))
    g.POST("/users", a.CreateStaffUser, middleware.RequireCapability(policy.CapManageUsers))
}
