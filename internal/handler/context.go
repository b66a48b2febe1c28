package handler

import (
	"strconv"

	"github.com/elton-creator/crm-system-v2/internal/model"
	"github.com/elton-creator/crm-system-v2/internal/scope"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's id set by AuthMiddleware.
func currentUserID(c echo.Context) (uint, bool) {
	id, ok := c.Get("user_id").(uint)
	return id, ok
}

// requestScope builds the tenant scope of the request. Clients are always
// scoped to their own data; admins act on the client named by the client_id
// query parameter (and on no rows when it is absent).
func requestScope(c echo.Context) (scope.Scope, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return scope.Scope{}, false
	}

	role, _ := c.Get("user_role").(string)
	if role == model.RoleAdmin {
		target, _ := strconv.ParseUint(c.QueryParam("client_id"), 10, 32)
		return scope.Admin(userID, uint(target)), true
	}
	return scope.Client(userID), true
}
