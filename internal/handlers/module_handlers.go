package handlers

import (
	"errors"
	"log"
	"net/http"

	"forgestudio/internal/common"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

type ModuleHandlers struct {
	moduleRepo  repositories.ModuleRepository
	projectRepo repositories.ProjectRepository
}

func NewModuleHandlers(moduleRepo repositories.ModuleRepository, projectRepo repositories.ProjectRepository) *ModuleHandlers {
	return &ModuleHandlers{moduleRepo: moduleRepo, projectRepo: projectRepo}
}

type CreateModuleRequest struct {
	ProjectID      string  `json:"projectId" validate:"required,uuid"`
	RequirementID  *string `json:"requirementId"`
	Name           string  `json:"name" validate:"required"`
	Description    *string `json:"description"`
	Type           string  `json:"type"`
	Priority       string  `json:"priority"`
	EstimatedHours *int    `json:"estimatedHours"`
}

type UpdateModuleRequest struct {
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Type           string  `json:"type"`
	Priority       string  `json:"priority"`
	Status         string  `json:"status"`
	EstimatedHours *int    `json:"estimatedHours"`
}

func (h *ModuleHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	var req CreateModuleRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	projectID, err := common.ValidateUUID(req.ProjectID, "projectId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, err.Error())
	}

	if _, err := h.projectRepo.GetByID(ctx, tenantID, projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFound(c, "Project")
		}
		log.Printf("ERROR: failed to load project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}

	module := &models.Module{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Name:           req.Name,
		Description:    req.Description,
		Type:           defaultString(req.Type, models.ModuleTypeFeature),
		Priority:       defaultString(req.Priority, models.PriorityMedium),
		Status:         models.ModuleStatusTodo,
		EstimatedHours: req.EstimatedHours,
	}
	if req.RequirementID != nil && *req.RequirementID != "" {
		requirementID, err := common.ValidateUUID(*req.RequirementID, "requirementId")
		if err != nil {
			return common.SendValidationError(c, err.Error())
		}
		module.RequirementID = &requirementID
	}

	if err := h.moduleRepo.Create(ctx, tenantID, module); err != nil {
		log.Printf("ERROR: failed to create module: %v", err)
		return common.SendInternalError(c)
	}

	return common.SendSuccess(c, http.StatusCreated, module)
}

func (h *ModuleHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	moduleID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	module, err := h.moduleRepo.GetByID(ctx, tenantID, moduleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Module")
	}
	if err != nil {
		log.Printf("ERROR: failed to load module %s: %v", moduleID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, module)
}

func (h *ModuleHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	var projectID *uuid.UUID
	if p := c.QueryParam("projectId"); p != "" {
		id, err := common.ValidateUUID(p, "projectId")
		if err != nil {
			return common.SendValidationError(c, err.Error())
		}
		projectID = &id
	}

	limit, offset := parsePagination(c)
	modules, err := h.moduleRepo.List(ctx, tenantID, projectID, limit, offset)
	if err != nil {
		log.Printf("ERROR: failed to list modules for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, modules)
}

func (h *ModuleHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	moduleID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	var req UpdateModuleRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	module, err := h.moduleRepo.GetByID(ctx, tenantID, moduleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Module")
	}
	if err != nil {
		log.Printf("ERROR: failed to load module %s: %v", moduleID, err)
		return common.SendInternalError(c)
	}

	if req.Name != "" {
		module.Name = req.Name
	}
	if req.Description != nil {
		module.Description = req.Description
	}
	if req.Type != "" {
		module.Type = req.Type
	}
	if req.Priority != "" {
		module.Priority = req.Priority
	}
	if req.Status != "" {
		module.Status = req.Status
	}
	if req.EstimatedHours != nil {
		module.EstimatedHours = req.EstimatedHours
	}

	affected, err := h.moduleRepo.Update(ctx, tenantID, module)
	if err != nil {
		log.Printf("ERROR: failed to update module %s: %v", moduleID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Module")
	}

	return common.SendSuccess(c, http.StatusOK, module)
}

func (h *ModuleHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	moduleID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	affected, err := h.moduleRepo.Delete(ctx, tenantID, moduleID)
	if err != nil {
		log.Printf("ERROR: failed to delete module %s: %v", moduleID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Module")
	}

	return common.SendSuccess(c, http.StatusOK, map[string]string{"message": "Module deleted"})
}
