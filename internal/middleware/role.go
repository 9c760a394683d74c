package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/recoverly/booking-api/internal/policy"
)

// RequireCapability returns a middleware that enforces the capability
// policy for the authenticated user's role.  The decision itself lives in
// the policy package as a pure function of (role, capability), so every
// endpoint shares one source of truth instead of repeating role checks.
// It assumes JWTAuth has stored the role claim in the context under
// "role"; a missing or unknown role is denied with 403 Forbidden.
func RequireCapability(cap policy.Capability) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            v := c.Get("role")
            role, ok := v.(string)
            if !ok || !policy.Allows(role, cap) {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
