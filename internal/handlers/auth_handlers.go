package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"forgestudio/internal/common"
	"forgestudio/internal/middleware"
	"forgestudio/internal/models"
	"forgestudio/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles registration, login, token refresh and session routes.
type AuthHandlers struct {
	authSvc       services.AuthService
	membershipSvc services.MembershipService
}

func NewAuthHandlers(authSvc services.AuthService, membershipSvc services.MembershipService) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc, membershipSvc: membershipSvc}
}

type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Name       string `json:"name"`
	TenantName string `json:"tenantName"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	TenantSlug string `json:"tenantSlug"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type SwitchTenantRequest struct {
	TenantID string `json:"tenantId" validate:"required,uuid"`
}

// AuthResponse is the payload for every route that mints tokens.
type AuthResponse struct {
	User     *UserResponse       `json:"user"`
	TenantID string              `json:"tenantId"`
	Role     string              `json:"role"`
	Tokens   *services.TokenPair `json:"tokens"`
}

// UserResponse is the public view of a user; the password hash never leaves.
type UserResponse struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	Avatar          *string `json:"avatar,omitempty"`
	CurrentTenantID *string `json:"currentTenantId,omitempty"`
}

func toUserResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:     user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		Avatar: user.Avatar,
	}
	if user.CurrentTenantID != nil {
		tid := user.CurrentTenantID.String()
		resp.CurrentTenantID = &tid
	}
	return resp
}

func toAuthResponse(result *services.AuthResult) *AuthResponse {
	return &AuthResponse{
		User:     toUserResponse(result.User),
		TenantID: result.TenantID.String(),
		Role:     result.Role,
		Tokens:   result.Tokens,
	}
}

// setAuthCookie mirrors the access token into an HTTP-only cookie so browser
// clients can authenticate without holding the token in script-visible state.
func setAuthCookie(c echo.Context, token string, maxAge time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     services.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     services.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates a user with their own tenant and signs them in.
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return common.SendValidationError(c, "Email and password are required")
	}
	if len(req.Password) < 8 {
		return common.SendValidationError(c, "Password must be at least 8 characters")
	}

	result, err := h.authSvc.Register(ctx, &services.RegisterRequest{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		TenantName: req.TenantName,
	})
	if errors.Is(err, services.ErrUserExists) {
		return common.SendValidationError(c, "An account with this email already exists")
	}
	if errors.Is(err, services.ErrTenantExists) {
		return common.SendValidationError(c, "This workspace name is already taken")
	}
	if errors.Is(err, services.ErrSecretMissing) {
		return common.SendServerError(c, "Authentication is not configured")
	}
	if err != nil {
		log.Printf("ERROR: registration failed for %s: %v", req.Email, err)
		return common.SendInternalError(c)
	}

	setAuthCookie(c, result.Tokens.AccessToken, services.AccessTokenTTL)
	return common.SendSuccess(c, http.StatusCreated, toAuthResponse(result))
}

// Login authenticates with email and password, optionally into a named tenant.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return common.SendValidationError(c, "Email and password are required")
	}

	result, err := h.authSvc.Login(ctx, &services.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		TenantSlug: req.TenantSlug,
	})
	if errors.Is(err, services.ErrInvalidCredentials) {
		return common.SendUnauthorized(c, "Invalid email or password")
	}
	if errors.Is(err, services.ErrTenantAccessDenied) {
		return common.SendError(c, http.StatusForbidden, common.CodeTenantAccessDenied, "You do not have access to this tenant", nil)
	}
	if errors.Is(err, services.ErrNoTenantAccess) {
		return common.SendError(c, http.StatusForbidden, common.CodeTenantAccessDenied, "You are not a member of any tenant", nil)
	}
	if errors.Is(err, services.ErrSecretMissing) {
		return common.SendServerError(c, "Authentication is not configured")
	}
	if err != nil {
		log.Printf("ERROR: login failed for %s: %v", req.Email, err)
		return common.SendInternalError(c)
	}

	setAuthCookie(c, result.Tokens.AccessToken, services.AccessTokenTTL)
	return common.SendSuccess(c, http.StatusOK, toAuthResponse(result))
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return common.SendValidationError(c, "Refresh token is required")
	}

	result, err := h.authSvc.Refresh(ctx, req.RefreshToken)
	if errors.Is(err, services.ErrTokenInvalid) {
		return common.SendUnauthorized(c, "Invalid or expired refresh token")
	}
	if errors.Is(err, services.ErrNoTenantAccess) {
		return common.SendError(c, http.StatusForbidden, common.CodeTenantAccessDenied, "You are not a member of any tenant", nil)
	}
	if errors.Is(err, services.ErrSecretMissing) {
		return common.SendServerError(c, "Authentication is not configured")
	}
	if err != nil {
		log.Printf("ERROR: token refresh failed: %v", err)
		return common.SendInternalError(c)
	}

	setAuthCookie(c, result.Tokens.AccessToken, services.AccessTokenTTL)
	return common.SendSuccess(c, http.StatusOK, toAuthResponse(result))
}

// Me returns the authenticated user's identity and tenant memberships.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorized(c, "")
	}
	email, _ := common.GetUserEmailFromContext(ctx)
	role, _ := common.GetUserRoleFromContext(ctx)

	memberships, err := h.membershipSvc.ListForUser(ctx, userID)
	if err != nil {
		log.Printf("ERROR: failed to list memberships for %s: %v", userID, err)
		return common.SendInternalError(c)
	}

	type membershipView struct {
		TenantID string `json:"tenantId"`
		Role     string `json:"role"`
	}
	views := make([]membershipView, 0, len(memberships))
	for _, m := range memberships {
		views = append(views, membershipView{TenantID: m.TenantID.String(), Role: m.Role})
	}

	return common.SendSuccess(c, http.StatusOK, map[string]interface{}{
		"id":          userID.String(),
		"email":       email,
		"role":        role,
		"memberships": views,
	})
}

// SwitchTenant re-issues tokens scoped to another tenant the user belongs to.
func (h *AuthHandlers) SwitchTenant(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorized(c, "")
	}

	var req SwitchTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	tenantID, err := common.ValidateUUID(req.TenantID, "tenantId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	result, err := h.authSvc.SwitchTenant(ctx, userID, tenantID)
	if errors.Is(err, services.ErrTenantAccessDenied) {
		return common.SendError(c, http.StatusForbidden, common.CodeTenantAccessDenied, "You do not have access to this tenant", nil)
	}
	if errors.Is(err, services.ErrTenantInactive) {
		return common.SendError(c, http.StatusForbidden, common.CodeTenantInactive, "This tenant is not active", nil)
	}
	if errors.Is(err, services.ErrSecretMissing) {
		return common.SendServerError(c, "Authentication is not configured")
	}
	if err != nil {
		log.Printf("ERROR: tenant switch failed for user %s: %v", userID, err)
		return common.SendInternalError(c)
	}

	setAuthCookie(c, result.Tokens.AccessToken, services.AccessTokenTTL)
	return common.SendSuccess(c, http.StatusOK, toAuthResponse(result))
}

// Logout revokes the current access token and clears the auth cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	claims, ok := c.Get(middleware.ClaimsContextKey).(*services.AccessClaims)
	if !ok {
		return common.SendUnauthorized(c, "")
	}

	if err := h.authSvc.Logout(c.Request().Context(), claims); err != nil {
		log.Printf("WARN: failed to blacklist token %s: %v", claims.ID, err)
	}

	clearAuthCookie(c)
	return common.SendSuccess(c, http.StatusOK, map[string]string{"message": "Logged out"})
}
