package middleware

import (
	"context"
	"log"
	"net/http"

	"forgestudio/internal/common"
	"forgestudio/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantMiddleware resolves the tenant a request targets and, when the caller
// is authenticated, verifies they hold an active membership there. The
// resolved tenant id goes into the request context for every downstream
// repository call.
func TenantMiddleware(resolver services.TenantResolver, membershipSvc services.MembershipService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant, err := resolver.Resolve(c.Request().Context(), c.Request())
			if err != nil {
				return common.SendError(c, http.StatusNotFound, common.CodeTenantNotFound, "Tenant not found", nil)
			}

			if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
				member, err := membershipSvc.Validate(c.Request().Context(), userID, tenant.ID)
				if err != nil {
					log.Printf("ERROR: membership lookup failed for user %s tenant %s: %v", userID, tenant.ID, err)
					return common.SendServerError(c, "Failed to verify tenant access")
				}
				if !member {
					return common.SendError(c, http.StatusForbidden, common.CodeTenantAccessDenied, "You do not have access to this tenant", nil)
				}
			}

			ctx := context.WithValue(c.Request().Context(), common.TenantIDKey, tenant.ID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireMembership is the strict variant for routes where an anonymous
// caller makes no sense: identity must already be in context.
func RequireMembership(resolver services.TenantResolver, membershipSvc services.MembershipService) echo.MiddlewareFunc {
	tenantMw := TenantMiddleware(resolver, membershipSvc)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := tenantMw(next)
		return func(c echo.Context) error {
			if _, ok := common.GetUserIDFromContext(c.Request().Context()); !ok {
				return common.SendUnauthorized(c, "Authentication required")
			}
			return guarded(c)
		}
	}
}
