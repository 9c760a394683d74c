// Package policy holds the pure decision rules of the service: which role
// may perform which operation, and whether a booking is still inside its
// modification window.  Keeping these as side-effect-free functions, rather
// than ad-hoc checks inside each handler, gives every endpoint one shared,
// testable source of truth.
package policy

// Capability names an operation that requires elevated rights.
type Capability string

const (
    CapRedeemAnyPass   Capability = "redeem_any_pass"  // redeem on behalf of any customer
    CapBackfillPasses  Capability = "backfill_passes"  // run the ticket backfill job
    CapDispatchRefunds Capability = "dispatch_refunds" // issue and reconcile refunds
    CapManageUsers     Capability = "manage_users"     // provision staff accounts
)

// Role names used in the users table and JWT role claim.
const (
    RoleAdmin = "ADMIN"
    RoleStaff = "STAFF"
)

// grants maps each role to the capabilities it holds.
var grants = map[string]map[Capability]bool{
    RoleAdmin: {
        CapRedeemAnyPass:   true,
        CapBackfillPasses:  true,
        CapDispatchRefunds: true,
        CapManageUsers:     true,
    },
    RoleStaff: {
        CapRedeemAnyPass: true,
    },
}

// Allows reports whether a role holds a capability.  Unknown roles hold
// nothing.
func Allows(role string, cap Capability) bool {
    return grants[role][cap]
}
