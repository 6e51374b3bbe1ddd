package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"forgestudio/internal/common"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"
	"forgestudio/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// RequirementHandlers implements requirement CRUD plus AI analysis. Analysis
// charges the aiRequests quota and persists the suggested modules and tasks.
type RequirementHandlers struct {
	requirementRepo repositories.RequirementRepository
	projectRepo     repositories.ProjectRepository
	moduleRepo      repositories.ModuleRepository
	taskRepo        repositories.TaskRepository
	quotaSvc        services.QuotaService
	aiSvc           services.AIService
}

func NewRequirementHandlers(
	requirementRepo repositories.RequirementRepository,
	projectRepo repositories.ProjectRepository,
	moduleRepo repositories.ModuleRepository,
	taskRepo repositories.TaskRepository,
	quotaSvc services.QuotaService,
	aiSvc services.AIService,
) *RequirementHandlers {
	return &RequirementHandlers{
		requirementRepo: requirementRepo,
		projectRepo:     projectRepo,
		moduleRepo:      moduleRepo,
		taskRepo:        taskRepo,
		quotaSvc:        quotaSvc,
		aiSvc:           aiSvc,
	}
}

type CreateRequirementRequest struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
}

type UpdateRequirementRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

func (h *RequirementHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	var req CreateRequirementRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	projectID, err := common.ValidateUUID(req.ProjectID, "projectId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return common.SendValidationError(c, err.Error())
	}
	if err := common.ValidateRequiredString(req.Content, "content"); err != nil {
		return common.SendValidationError(c, err.Error())
	}

	// The project lookup also proves the target belongs to this tenant.
	if _, err := h.projectRepo.GetByID(ctx, tenantID, projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFound(c, "Project")
		}
		log.Printf("ERROR: failed to load project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}

	reserved, err := h.quotaSvc.Reserve(ctx, tenantID, models.QuotaRequirements, 1)
	if err != nil {
		log.Printf("ERROR: failed to reserve requirement quota for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	if !reserved {
		usage, _ := h.quotaSvc.Check(ctx, tenantID, models.QuotaRequirements)
		details := map[string]interface{}{"resource": models.QuotaRequirements}
		if usage != nil {
			details["current"] = usage.Current
			details["limit"] = usage.Limit
		}
		return common.SendError(c, http.StatusTooManyRequests, common.CodeQuotaExceeded, "Requirement quota exceeded", details)
	}

	requirement := &models.Requirement{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     req.Title,
		Content:   req.Content,
		Type:      defaultString(req.Type, models.RequirementTypeFunctional),
		Priority:  defaultString(req.Priority, models.PriorityMedium),
		Status:    models.RequirementStatusPending,
	}
	if err := h.requirementRepo.Create(ctx, tenantID, requirement); err != nil {
		if relErr := h.quotaSvc.Release(ctx, tenantID, models.QuotaRequirements, 1); relErr != nil {
			log.Printf("WARN: failed to release requirement quota after create failure: %v", relErr)
		}
		log.Printf("ERROR: failed to create requirement: %v", err)
		return common.SendInternalError(c)
	}

	return common.SendSuccess(c, http.StatusCreated, requirement)
}

func (h *RequirementHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	requirementID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	requirement, err := h.requirementRepo.GetByID(ctx, tenantID, requirementID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Requirement")
	}
	if err != nil {
		log.Printf("ERROR: failed to load requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, requirement)
}

func (h *RequirementHandlers) List(c echo.Context) error {
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
	requirements, err := h.requirementRepo.List(ctx, tenantID, projectID, limit, offset)
	if err != nil {
		log.Printf("ERROR: failed to list requirements for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, requirements)
}

func (h *RequirementHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	requirementID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	var req UpdateRequirementRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	requirement, err := h.requirementRepo.GetByID(ctx, tenantID, requirementID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Requirement")
	}
	if err != nil {
		log.Printf("ERROR: failed to load requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}

	if req.Title != "" {
		requirement.Title = req.Title
	}
	if req.Content != "" {
		requirement.Content = req.Content
	}
	if req.Type != "" {
		requirement.Type = req.Type
	}
	if req.Priority != "" {
		requirement.Priority = req.Priority
	}
	if req.Status != "" {
		requirement.Status = req.Status
	}

	affected, err := h.requirementRepo.Update(ctx, tenantID, requirement)
	if err != nil {
		log.Printf("ERROR: failed to update requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Requirement")
	}

	return common.SendSuccess(c, http.StatusOK, requirement)
}

func (h *RequirementHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	requirementID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	affected, err := h.requirementRepo.Delete(ctx, tenantID, requirementID)
	if err != nil {
		log.Printf("ERROR: failed to delete requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Requirement")
	}

	if err := h.quotaSvc.Release(ctx, tenantID, models.QuotaRequirements, 1); err != nil {
		log.Printf("WARN: failed to release requirement quota for tenant %s: %v", tenantID, err)
	}

	return common.SendSuccess(c, http.StatusOK, map[string]string{"message": "Requirement deleted"})
}

// Analyze runs the AI breakdown for a requirement, stores the analysis
// snapshot and materializes the suggested modules and tasks.
func (h *RequirementHandlers) Analyze(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	requirementID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	requirement, err := h.requirementRepo.GetByID(ctx, tenantID, requirementID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Requirement")
	}
	if err != nil {
		log.Printf("ERROR: failed to load requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}

	reserved, err := h.quotaSvc.Reserve(ctx, tenantID, models.QuotaAIRequests, 1)
	if err != nil {
		log.Printf("ERROR: failed to reserve AI quota for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	if !reserved {
		usage, _ := h.quotaSvc.Check(ctx, tenantID, models.QuotaAIRequests)
		details := map[string]interface{}{"resource": models.QuotaAIRequests}
		if usage != nil {
			details["current"] = usage.Current
			details["limit"] = usage.Limit
		}
		return common.SendError(c, http.StatusTooManyRequests, common.CodeQuotaExceeded, "AI request quota exceeded", details)
	}

	analysis, err := h.aiSvc.AnalyzeRequirement(ctx, requirement.Title, requirement.Content)
	if err != nil {
		if relErr := h.quotaSvc.Release(ctx, tenantID, models.QuotaAIRequests, 1); relErr != nil {
			log.Printf("WARN: failed to release AI quota after analysis failure: %v", relErr)
		}
		if errors.Is(err, services.ErrAIUnavailable) {
			return common.SendError(c, http.StatusServiceUnavailable, common.CodeServerError, "AI analysis is currently unavailable", nil)
		}
		log.Printf("ERROR: analysis failed for requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		log.Printf("ERROR: failed to encode analysis for requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}
	snapshot := string(analysisJSON)
	requirement.Analysis = &snapshot
	requirement.Status = models.RequirementStatusAnalyzed

	if _, err := h.requirementRepo.Update(ctx, tenantID, requirement); err != nil {
		log.Printf("ERROR: failed to persist analysis for requirement %s: %v", requirementID, err)
		return common.SendInternalError(c)
	}

	created := h.materializeModules(c, tenantID, requirement, analysis.Modules)

	return common.SendSuccess(c, http.StatusOK, map[string]interface{}{
		"requirement": requirement,
		"analysis":    analysis,
		"modules":     created,
	})
}

func (h *RequirementHandlers) materializeModules(c echo.Context, tenantID uuid.UUID, requirement *models.Requirement, suggested []services.SuggestedModule) []*models.Module {
	ctx := c.Request().Context()

	var created []*models.Module
	for _, sm := range suggested {
		hours := sm.EstimatedHours
		module := &models.Module{
			ID:             uuid.New(),
			ProjectID:      requirement.ProjectID,
			RequirementID:  &requirement.ID,
			Name:           sm.Name,
			Description:    optionalString(sm.Description),
			Type:           defaultString(sm.Type, models.ModuleTypeFeature),
			Priority:       defaultString(sm.Priority, models.PriorityMedium),
			Status:         models.ModuleStatusTodo,
			EstimatedHours: &hours,
		}
		if err := h.moduleRepo.Create(ctx, tenantID, module); err != nil {
			log.Printf("WARN: failed to create suggested module %q: %v", sm.Name, err)
			continue
		}
		created = append(created, module)

		for _, st := range sm.Tasks {
			taskHours := st.EstimatedHours
			task := &models.Task{
				ID:             uuid.New(),
				ModuleID:       module.ID,
				Title:          st.Title,
				Description:    optionalString(st.Description),
				Type:           defaultString(st.Type, models.TaskTypeDevelopment),
				Priority:       defaultString(st.Priority, models.PriorityMedium),
				Status:         models.TaskStatusTodo,
				EstimatedHours: &taskHours,
				TechStack:      st.TechStack,
				FilePath:       optionalString(st.FilePath),
			}
			if err := h.taskRepo.Create(ctx, tenantID, task); err != nil {
				log.Printf("WARN: failed to create suggested task %q: %v", st.Title, err)
			}
		}
	}
	return created
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
