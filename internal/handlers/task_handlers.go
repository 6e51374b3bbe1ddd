package handlers

import (
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

// TaskHandlers implements task CRUD plus AI code generation. Generation
// charges the aiRequests quota.
type TaskHandlers struct {
	taskRepo   repositories.TaskRepository
	moduleRepo repositories.ModuleRepository
	quotaSvc   services.QuotaService
	aiSvc      services.AIService
}

func NewTaskHandlers(
	taskRepo repositories.TaskRepository,
	moduleRepo repositories.ModuleRepository,
	quotaSvc services.QuotaService,
	aiSvc services.AIService,
) *TaskHandlers {
	return &TaskHandlers{taskRepo: taskRepo, moduleRepo: moduleRepo, quotaSvc: quotaSvc, aiSvc: aiSvc}
}

type CreateTaskRequest struct {
	ModuleID       string   `json:"moduleId" validate:"required,uuid"`
	Title          string   `json:"title" validate:"required"`
	Description    *string  `json:"description"`
	Type           string   `json:"type"`
	Priority       string   `json:"priority"`
	EstimatedHours *int     `json:"estimatedHours"`
	TechStack      []string `json:"techStack"`
	FilePath       *string  `json:"filePath"`
}

type UpdateTaskRequest struct {
	Title          string   `json:"title"`
	Description    *string  `json:"description"`
	Type           string   `json:"type"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	AssigneeID     *string  `json:"assigneeId"`
	EstimatedHours *int     `json:"estimatedHours"`
	TechStack      []string `json:"techStack"`
	FilePath       *string  `json:"filePath"`
}

func (h *TaskHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	moduleID, err := common.ValidateUUID(req.ModuleID, "moduleId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return common.SendValidationError(c, err.Error())
	}

	if _, err := h.moduleRepo.GetByID(ctx, tenantID, moduleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFound(c, "Module")
		}
		log.Printf("ERROR: failed to load module %s: %v", moduleID, err)
		return common.SendInternalError(c)
	}

	task := &models.Task{
		ID:             uuid.New(),
		ModuleID:       moduleID,
		Title:          req.Title,
		Description:    req.Description,
		Type:           defaultString(req.Type, models.TaskTypeDevelopment),
		Priority:       defaultString(req.Priority, models.PriorityMedium),
		Status:         models.TaskStatusTodo,
		EstimatedHours: req.EstimatedHours,
		TechStack:      req.TechStack,
		FilePath:       req.FilePath,
	}
	if err := h.taskRepo.Create(ctx, tenantID, task); err != nil {
		log.Printf("ERROR: failed to create task: %v", err)
		return common.SendInternalError(c)
	}

	return common.SendSuccess(c, http.StatusCreated, task)
}

func (h *TaskHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	taskID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	task, err := h.taskRepo.GetByID(ctx, tenantID, taskID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Task")
	}
	if err != nil {
		log.Printf("ERROR: failed to load task %s: %v", taskID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, task)
}

func (h *TaskHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	var moduleID *uuid.UUID
	if m := c.QueryParam("moduleId"); m != "" {
		id, err := common.ValidateUUID(m, "moduleId")
		if err != nil {
			return common.SendValidationError(c, err.Error())
		}
		moduleID = &id
	}

	limit, offset := parsePagination(c)
	tasks, err := h.taskRepo.List(ctx, tenantID, moduleID, limit, offset)
	if err != nil {
		log.Printf("ERROR: failed to list tasks for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, tasks)
}

func (h *TaskHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	taskID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	task, err := h.taskRepo.GetByID(ctx, tenantID, taskID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Task")
	}
	if err != nil {
		log.Printf("ERROR: failed to load task %s: %v", taskID, err)
		return common.SendInternalError(c)
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Type != "" {
		task.Type = req.Type
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			task.AssigneeID = nil
		} else {
			assigneeID, err := common.ValidateUUID(*req.AssigneeID, "assigneeId")
			if err != nil {
				return common.SendValidationError(c, err.Error())
			}
			task.AssigneeID = &assigneeID
		}
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = req.EstimatedHours
	}
	if req.TechStack != nil {
		task.TechStack = req.TechStack
	}
	if req.FilePath != nil {
		task.FilePath = req.FilePath
	}

	affected, err := h.taskRepo.Update(ctx, tenantID, task)
	if err != nil {
		log.Printf("ERROR: failed to update task %s: %v", taskID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Task")
	}

	return common.SendSuccess(c, http.StatusOK, task)
}

func (h *TaskHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	taskID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	affected, err := h.taskRepo.Delete(ctx, tenantID, taskID)
	if err != nil {
		log.Printf("ERROR: failed to delete task %s: %v", taskID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Task")
	}

	return common.SendSuccess(c, http.StatusOK, map[string]string{"message": "Task deleted"})
}

// GenerateCode asks the AI service for an implementation of the task and
// stores it on the task record.
func (h *TaskHandlers) GenerateCode(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	taskID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	task, err := h.taskRepo.GetByID(ctx, tenantID, taskID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Task")
	}
	if err != nil {
		log.Printf("ERROR: failed to load task %s: %v", taskID, err)
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

	description := task.Title
	if task.Description != nil {
		description += "\n\n" + *task.Description
	}
	filePath := ""
	if task.FilePath != nil {
		filePath = *task.FilePath
	}

	code, err := h.aiSvc.GenerateCode(ctx, description, task.TechStack, filePath)
	if err != nil {
		if relErr := h.quotaSvc.Release(ctx, tenantID, models.QuotaAIRequests, 1); relErr != nil {
			log.Printf("WARN: failed to release AI quota after generation failure: %v", relErr)
		}
		if errors.Is(err, services.ErrAIUnavailable) {
			return common.SendError(c, http.StatusServiceUnavailable, common.CodeServerError, "AI code generation is currently unavailable", nil)
		}
		log.Printf("ERROR: code generation failed for task %s: %v", taskID, err)
		return common.SendInternalError(c)
	}

	affected, err := h.taskRepo.SetGeneratedCode(ctx, tenantID, taskID, code)
	if err != nil {
		log.Printf("ERROR: failed to store generated code for task %s: %v", taskID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Task")
	}

	task.GeneratedCode = &code
	return common.SendSuccess(c, http.StatusOK, task)
}
