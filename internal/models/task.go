package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskTypeDevelopment   = "DEVELOPMENT"
	TaskTypeTesting       = "TESTING"
	TaskTypeDocumentation = "DOCUMENTATION"
	TaskTypeDeployment    = "DEPLOYMENT"
	TaskTypeRefactoring   = "REFACTORING"
)

const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusDone       = "DONE"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

type Task struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ModuleID       uuid.UUID  `json:"module_id" db:"module_id"`
	AssigneeID     *uuid.UUID `json:"assignee_id,omitempty" db:"assignee_id"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Type           string     `json:"type" db:"type"`
	Priority       string     `json:"priority" db:"priority"`
	Status         string     `json:"status" db:"status"`
	EstimatedHours *int       `json:"estimated_hours,omitempty" db:"estimated_hours"`
	TechStack      []string   `json:"tech_stack" db:"tech_stack"`
	FilePath       *string    `json:"file_path,omitempty" db:"file_path"`
	GeneratedCode  *string    `json:"generated_code,omitempty" db:"generated_code"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
