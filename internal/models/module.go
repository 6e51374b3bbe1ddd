package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ModuleTypeFeature     = "FEATURE"
	ModuleTypeComponent   = "COMPONENT"
	ModuleTypeService     = "SERVICE"
	ModuleTypeUtility     = "UTILITY"
	ModuleTypeIntegration = "INTEGRATION"
)

const (
	ModuleStatusTodo       = "TODO"
	ModuleStatusInProgress = "IN_PROGRESS"
	ModuleStatusDone       = "DONE"
)

type Module struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ProjectID      uuid.UUID  `json:"project_id" db:"project_id"`
	RequirementID  *uuid.UUID `json:"requirement_id,omitempty" db:"requirement_id"`
	Name           string     `json:"name" db:"name"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Type           string     `json:"type" db:"type"`
	Priority       string     `json:"priority" db:"priority"`
	Status         string     `json:"status" db:"status"`
	EstimatedHours *int       `json:"estimated_hours,omitempty" db:"estimated_hours"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
