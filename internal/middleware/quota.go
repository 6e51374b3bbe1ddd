package middleware

import (
	"log"
	"net/http"

	"forgestudio/internal/common"
	"forgestudio/internal/models"
	"forgestudio/internal/services"

	"github.com/labstack/echo/v4"
)

// RequireQuota blocks creation requests once the tenant's limit for the
// resource is reached. This is a pre-flight check only; the handler still
// reserves atomically, so two racing requests cannot both slip past the
// limit.
func RequireQuota(quotaSvc services.QuotaService, resource models.QuotaResource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
			if !ok {
				return common.SendForbidden(c, "Tenant context missing")
			}

			usage, err := quotaSvc.Check(c.Request().Context(), tenantID, resource)
			if err != nil {
				log.Printf("ERROR: quota check failed for tenant %s resource %s: %v", tenantID, resource, err)
				return common.SendInternalError(c)
			}

			if !usage.Allowed {
				return common.SendError(c, http.StatusTooManyRequests, common.CodeQuotaExceeded,
					"Quota exceeded for "+string(resource), map[string]interface{}{
						"resource": resource,
						"current":  usage.Current,
						"limit":    usage.Limit,
					})
			}
			return next(c)
		}
	}
}
