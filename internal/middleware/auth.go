package middleware

import (
	"context"
	"errors"
	"log"

	"forgestudio/internal/caching"
	"forgestudio/internal/common"
	"forgestudio/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ClaimsContextKey is the echo context key holding the verified access claims.
const ClaimsContextKey = "accessClaims"

// AuthMiddleware validates the request's access token and stores the caller's
// identity in the request context. Every failure mode is a uniform 401 except
// a missing signing secret, which is the server's fault.
func AuthMiddleware(tokenSvc services.TokenService, cacheSvc caching.CacheService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := services.ExtractToken(c.Request())
			if tokenString == "" {
				return common.SendUnauthorized(c, "Authentication required")
			}

			claims, err := tokenSvc.VerifyAccess(tokenString)
			if errors.Is(err, services.ErrSecretMissing) {
				log.Printf("ERROR: token verification impossible: %v", err)
				return common.SendServerError(c, "Authentication is not configured")
			}
			if err != nil {
				return common.SendUnauthorized(c, "Invalid or expired token")
			}

			if blacklisted, err := cacheSvc.IsTokenBlacklisted(c.Request().Context(), claims.ID); err != nil {
				log.Printf("WARN: token blacklist check failed: %v", err)
			} else if blacklisted {
				return common.SendUnauthorized(c, "Invalid or expired token")
			}

			ctx, err := contextWithClaims(c.Request().Context(), claims)
			if err != nil {
				return common.SendUnauthorized(c, "Invalid or expired token")
			}
			c.Set(ClaimsContextKey, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// OptionalAuthMiddleware populates identity when a valid token is present but
// lets anonymous requests through. Used on routes that behave differently for
// signed-in callers without requiring them.
func OptionalAuthMiddleware(tokenSvc services.TokenService, cacheSvc caching.CacheService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := services.ExtractToken(c.Request())
			if tokenString == "" {
				return next(c)
			}

			claims, err := tokenSvc.VerifyAccess(tokenString)
			if err != nil {
				return next(c)
			}
			if blacklisted, _ := cacheSvc.IsTokenBlacklisted(c.Request().Context(), claims.ID); blacklisted {
				return next(c)
			}

			ctx, err := contextWithClaims(c.Request().Context(), claims)
			if err != nil {
				return next(c)
			}
			c.Set(ClaimsContextKey, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func contextWithClaims(ctx context.Context, claims *services.AccessClaims) (context.Context, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ctx, err
	}
	ctx = context.WithValue(ctx, common.UserIDKey, userID)
	ctx = context.WithValue(ctx, common.UserEmailKey, claims.Email)
	if claims.Role != "" {
		ctx = context.WithValue(ctx, common.UserRoleKey, claims.Role)
	}
	return ctx, nil
}
