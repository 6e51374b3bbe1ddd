package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RequirementTypeFunctional    = "FUNCTIONAL"
	RequirementTypeNonFunctional = "NON_FUNCTIONAL"
	RequirementTypeTechnical     = "TECHNICAL"
	RequirementTypeBusiness      = "BUSINESS"
)

const (
	RequirementStatusPending  = "PENDING"
	RequirementStatusAnalyzed = "ANALYZED"
	RequirementStatusApproved = "APPROVED"
	RequirementStatusRejected = "REJECTED"
)

type Requirement struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Type      string    `json:"type" db:"type"`
	Priority  string    `json:"priority" db:"priority"`
	Status    string    `json:"status" db:"status"`
	Analysis  *string   `json:"analysis,omitempty" db:"analysis"` // JSON snapshot of the last AI analysis
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
