package handlers

import (
	"errors"
	"log"
	"net/http"

	"forgestudio/internal/authz"
	"forgestudio/internal/caching"
	"forgestudio/internal/common"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"
	"forgestudio/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// TenantHandlers covers the current tenant's settings, membership roster and
// quota readout. All routes run behind the tenant middleware, so the tenant
// id is always in context.
type TenantHandlers struct {
	tenantRepo     repositories.TenantRepository
	membershipRepo repositories.MembershipRepository
	userRepo       repositories.UserRepository
	quotaSvc       services.QuotaService
	cacheSvc       caching.CacheService
}

func NewTenantHandlers(
	tenantRepo repositories.TenantRepository,
	membershipRepo repositories.MembershipRepository,
	userRepo repositories.UserRepository,
	quotaSvc services.QuotaService,
	cacheSvc caching.CacheService,
) *TenantHandlers {
	return &TenantHandlers{
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		quotaSvc:       quotaSvc,
		cacheSvc:       cacheSvc,
	}
}

type UpdateTenantRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

type InviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// Get returns the current tenant.
func (h *TenantHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	tenant, err := h.tenantRepo.GetByID(ctx, tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendError(c, http.StatusNotFound, common.CodeTenantNotFound, "Tenant not found", nil)
	}
	if err != nil {
		log.Printf("ERROR: failed to load tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, tenant)
}

// Update changes tenant settings and drops the cached copy so stale data
// never outlives the change.
func (h *TenantHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	var req UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	tenant, err := h.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		log.Printf("ERROR: failed to load tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.Plan != "" {
		switch req.Plan {
		case models.TenantPlanFree, models.TenantPlanPro, models.TenantPlanEnterprise:
			tenant.Plan = req.Plan
		default:
			return common.SendValidationError(c, "Invalid plan")
		}
	}

	if err := h.tenantRepo.Update(ctx, tenant); err != nil {
		log.Printf("ERROR: failed to update tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}

	if err := h.cacheSvc.InvalidateTenant(ctx, tenant); err != nil {
		log.Printf("WARN: failed to invalidate tenant cache for %s: %v", tenantID, err)
	}

	return common.SendSuccess(c, http.StatusOK, tenant)
}

// ListMembers returns the tenant's membership roster.
func (h *TenantHandlers) ListMembers(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	limit, offset := parsePagination(c)
	members, err := h.membershipRepo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		log.Printf("ERROR: failed to list members for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, members)
}

// InviteMember adds an existing user to the tenant, charging the users quota.
func (h *TenantHandlers) InviteMember(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	var req InviteMemberRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	if req.Email == "" {
		return common.SendValidationError(c, "Email is required")
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		return common.SendValidationError(c, "Invalid role")
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "User")
	}
	if err != nil {
		log.Printf("ERROR: failed to look up user %s: %v", req.Email, err)
		return common.SendInternalError(c)
	}

	if _, err := h.membershipRepo.GetActive(ctx, tenantID, user.ID); err == nil {
		return common.SendValidationError(c, "User is already a member of this tenant")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: membership lookup failed: %v", err)
		return common.SendInternalError(c)
	}

	reserved, err := h.quotaSvc.Reserve(ctx, tenantID, models.QuotaUsers, 1)
	if err != nil {
		log.Printf("ERROR: failed to reserve user quota for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	if !reserved {
		usage, _ := h.quotaSvc.Check(ctx, tenantID, models.QuotaUsers)
		details := map[string]interface{}{"resource": models.QuotaUsers}
		if usage != nil {
			details["current"] = usage.Current
			details["limit"] = usage.Limit
		}
		return common.SendError(c, http.StatusTooManyRequests, common.CodeQuotaExceeded, "User quota exceeded", details)
	}

	member := &models.TenantMember{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   user.ID,
		Role:     string(role),
		Status:   models.MemberStatusActive,
	}
	if err := h.membershipRepo.Create(ctx, member); err != nil {
		if relErr := h.quotaSvc.Release(ctx, tenantID, models.QuotaUsers, 1); relErr != nil {
			log.Printf("WARN: failed to release user quota after invite failure: %v", relErr)
		}
		log.Printf("ERROR: failed to create membership: %v", err)
		return common.SendInternalError(c)
	}

	return common.SendSuccess(c, http.StatusCreated, member)
}

// UpdateMemberRole changes a member's role. The change takes effect on the
// member's next token refresh.
func (h *TenantHandlers) UpdateMemberRole(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	userID, err := common.ValidateUUID(c.Param("userId"), "userId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	var req UpdateMemberRoleRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		return common.SendValidationError(c, "Invalid role")
	}

	affected, err := h.membershipRepo.UpdateRole(ctx, tenantID, userID, string(role))
	if err != nil {
		log.Printf("ERROR: failed to update role for user %s in tenant %s: %v", userID, tenantID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Member")
	}

	return common.SendSuccess(c, http.StatusOK, map[string]string{
		"userId": userID.String(),
		"role":   string(role),
	})
}

// RemoveMember suspends a membership and returns the seat to the users quota.
func (h *TenantHandlers) RemoveMember(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	userID, err := common.ValidateUUID(c.Param("userId"), "userId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	affected, err := h.membershipRepo.UpdateStatus(ctx, tenantID, userID, models.MemberStatusSuspended)
	if err != nil {
		log.Printf("ERROR: failed to suspend member %s in tenant %s: %v", userID, tenantID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Member")
	}

	if err := h.quotaSvc.Release(ctx, tenantID, models.QuotaUsers, 1); err != nil {
		log.Printf("WARN: failed to release user quota for tenant %s: %v", tenantID, err)
	}

	return common.SendSuccess(c, http.StatusOK, map[string]string{"message": "Member removed"})
}

// GetQuota returns the tenant's full usage-versus-limit readout.
func (h *TenantHandlers) GetQuota(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	quota, err := h.quotaSvc.Get(ctx, tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Quota")
	}
	if err != nil {
		log.Printf("ERROR: failed to load quota for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, quota)
}
