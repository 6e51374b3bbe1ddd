package handlers

import (
	"errors"
	"log"
	"net/http"

	"forgestudio/internal/authz"
	"forgestudio/internal/common"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"
	"forgestudio/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// ProjectHandlers implements project CRUD. Creation charges the projects
// quota; deletion returns it.
type ProjectHandlers struct {
	projectRepo repositories.ProjectRepository
	quotaSvc    services.QuotaService
}

func NewProjectHandlers(projectRepo repositories.ProjectRepository, quotaSvc services.QuotaService) *ProjectHandlers {
	return &ProjectHandlers{projectRepo: projectRepo, quotaSvc: quotaSvc}
}

type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// requireOwnership evaluates the ownership condition for a loaded record.
// ADMIN and MANAGER act on any record in the tenant; other roles only on
// their own.
func requireOwnership(c echo.Context, permission authz.Permission, ownerID uuid.UUID) error {
	ctx := c.Request().Context()
	userID, _ := common.GetUserIDFromContext(ctx)
	tenantID, _ := common.GetTenantIDFromContext(ctx)
	roleStr, _ := common.GetUserRoleFromContext(ctx)

	role, ok := authz.ParseRole(roleStr)
	if !ok {
		return common.SendForbidden(c, "Invalid role")
	}

	decision := authz.Evaluate(role, permission, &authz.Conditions{
		OwnerID:        &ownerID,
		CallerID:       userID,
		CallerTenantID: tenantID,
	})
	if !decision.Allowed {
		return common.SendForbidden(c, "You do not have permission to perform this action")
	}
	return nil
}

func (h *ProjectHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)
	userID, _ := common.GetUserIDFromContext(ctx)

	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, err.Error())
	}

	reserved, err := h.quotaSvc.Reserve(ctx, tenantID, models.QuotaProjects, 1)
	if err != nil {
		log.Printf("ERROR: failed to reserve project quota for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	if !reserved {
		usage, _ := h.quotaSvc.Check(ctx, tenantID, models.QuotaProjects)
		details := map[string]interface{}{"resource": models.QuotaProjects}
		if usage != nil {
			details["current"] = usage.Current
			details["limit"] = usage.Limit
		}
		return common.SendError(c, http.StatusTooManyRequests, common.CodeQuotaExceeded, "Project quota exceeded", details)
	}

	project := &models.Project{
		ID:          uuid.New(),
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatusPlanning,
	}
	if err := h.projectRepo.Create(ctx, tenantID, project); err != nil {
		if relErr := h.quotaSvc.Release(ctx, tenantID, models.QuotaProjects, 1); relErr != nil {
			log.Printf("WARN: failed to release project quota after create failure: %v", relErr)
		}
		log.Printf("ERROR: failed to create project for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}

	return common.SendSuccess(c, http.StatusCreated, project)
}

func (h *ProjectHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	projectID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	project, err := h.projectRepo.GetByID(ctx, tenantID, projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Project")
	}
	if err != nil {
		log.Printf("ERROR: failed to load project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, project)
}

func (h *ProjectHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	limit, offset := parsePagination(c)
	projects, err := h.projectRepo.List(ctx, tenantID, limit, offset)
	if err != nil {
		log.Printf("ERROR: failed to list projects for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, projects)
}

func (h *ProjectHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	projectID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	var req UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	project, err := h.projectRepo.GetByID(ctx, tenantID, projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Project")
	}
	if err != nil {
		log.Printf("ERROR: failed to load project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}

	if err := requireOwnership(c, authz.ProjectUpdate, project.OwnerID); err != nil {
		return err
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.Status != "" {
		switch req.Status {
		case models.ProjectStatusPlanning, models.ProjectStatusInProgress,
			models.ProjectStatusCompleted, models.ProjectStatusArchived:
			project.Status = req.Status
		default:
			return common.SendValidationError(c, "Invalid status")
		}
	}

	affected, err := h.projectRepo.Update(ctx, tenantID, project)
	if err != nil {
		log.Printf("ERROR: failed to update project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Project")
	}

	return common.SendSuccess(c, http.StatusOK, project)
}

func (h *ProjectHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	projectID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	project, err := h.projectRepo.GetByID(ctx, tenantID, projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Project")
	}
	if err != nil {
		log.Printf("ERROR: failed to load project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}

	if err := requireOwnership(c, authz.ProjectDelete, project.OwnerID); err != nil {
		return err
	}

	affected, err := h.projectRepo.Delete(ctx, tenantID, projectID)
	if err != nil {
		log.Printf("ERROR: failed to delete project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Project")
	}

	if err := h.quotaSvc.Release(ctx, tenantID, models.QuotaProjects, 1); err != nil {
		log.Printf("WARN: failed to release project quota for tenant %s: %v", tenantID, err)
	}

	return common.SendSuccess(c, http.StatusOK, map[string]string{"message": "Project deleted"})
}
