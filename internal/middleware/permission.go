package middleware

import (
	"forgestudio/internal/authz"
	"forgestudio/internal/common"

	"github.com/labstack/echo/v4"
)

// RequirePermission rejects callers whose role does not grant the permission.
// Ownership and tenant conditions are evaluated by handlers once the target
// record has been loaded; this gate only covers the role table.
func RequirePermission(permission authz.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roleStr, ok := common.GetUserRoleFromContext(c.Request().Context())
			if !ok {
				return common.SendForbidden(c, "No role assigned for this tenant")
			}

			role, ok := authz.ParseRole(roleStr)
			if !ok {
				return common.SendForbidden(c, "Invalid role")
			}

			if decision := authz.Evaluate(role, permission, nil); !decision.Allowed {
				return common.SendForbidden(c, "You do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
