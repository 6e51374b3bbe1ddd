package models

import (
	"time"

	"github.com/google/uuid"
)

// QuotaResource identifies one of the metered per-tenant resources.
type QuotaResource string

const (
	QuotaProjects     QuotaResource = "projects"
	QuotaUsers        QuotaResource = "users"
	QuotaRequirements QuotaResource = "requirements"
	QuotaAIRequests   QuotaResource = "aiRequests"
	QuotaStorage      QuotaResource = "storage"
)

// Default limits assigned to a freshly registered tenant.
const (
	DefaultMaxProjects     = 10
	DefaultMaxUsers        = 5
	DefaultMaxRequirements = 100
	DefaultMaxAIRequests   = 1000
	DefaultMaxStorage      = int64(1073741824) // 1 GiB
)

// TenantQuota holds paired (used, max) counters, one row per tenant.
type TenantQuota struct {
	ID               uuid.UUID `json:"id" db:"id"`
	TenantID         uuid.UUID `json:"tenant_id" db:"tenant_id"`
	MaxProjects      int64     `json:"max_projects" db:"max_projects"`
	UsedProjects     int64     `json:"used_projects" db:"used_projects"`
	MaxUsers         int64     `json:"max_users" db:"max_users"`
	UsedUsers        int64     `json:"used_users" db:"used_users"`
	MaxRequirements  int64     `json:"max_requirements" db:"max_requirements"`
	UsedRequirements int64     `json:"used_requirements" db:"used_requirements"`
	MaxAIRequests    int64     `json:"max_ai_requests" db:"max_ai_requests"`
	UsedAIRequests   int64     `json:"used_ai_requests" db:"used_ai_requests"`
	MaxStorage       int64     `json:"max_storage" db:"max_storage"`
	UsedStorage      int64     `json:"used_storage" db:"used_storage"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Usage reports one resource's counters at check time.
type Usage struct {
	Allowed bool  `json:"allowed"`
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}
