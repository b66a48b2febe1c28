// Package scope models whose rows an authenticated request may touch.
//
// A client user only ever manages its own data, so its scope is pinned to
// its own id. An admin chooses an explicit target client when inspecting
// CRM data, and runs unscoped only on user management. Keeping this as an
// explicit value passed around (instead of re-deriving it from the role
// string at every call site) makes the tenant isolation rules auditable in
// one place.
package scope

import "github.com/elton-creator/crm-system-v2/internal/model"

// Scope identifies the acting user and the tenant whose rows the request
// is allowed to read and write.
type Scope struct {
	actorID  uint
	role     string
	tenantID uint
}

// Client returns the self-scoped view of a client user.
func Client(userID uint) Scope {
	return Scope{actorID: userID, role: model.RoleClient, tenantID: userID}
}

// Admin returns an admin's view over the given target client's data. A zero
// target matches no rows, so an admin who names no client sees nothing
// rather than everything.
func Admin(userID, targetClientID uint) Scope {
	return Scope{actorID: userID, role: model.RoleAdmin, tenantID: targetClientID}
}

// ActorID is the id of the authenticated user making the request.
func (s Scope) ActorID() uint {
	return s.actorID
}

// IsAdmin reports whether the acting user holds the admin role.
func (s Scope) IsAdmin() bool {
	return s.role == model.RoleAdmin
}

// TenantID is the client id every origin/funnel/lead query must filter by.
func (s Scope) TenantID() uint {
	return s.tenantID
}
