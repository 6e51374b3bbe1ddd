package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive    = "ACTIVE"
	TenantStatusSuspended = "SUSPENDED"
	TenantStatusInactive  = "INACTIVE"
)

const (
	TenantPlanFree       = "FREE"
	TenantPlanPro        = "PRO"
	TenantPlanEnterprise = "ENTERPRISE"
)

type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Plan      string    `json:"plan" db:"plan"`
	Status    string    `json:"status" db:"status"`
	AdminID   uuid.UUID `json:"admin_id" db:"admin_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
