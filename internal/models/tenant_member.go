package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MemberStatusActive    = "ACTIVE"
	MemberStatusInvited   = "INVITED"
	MemberStatusSuspended = "SUSPENDED"
)

// TenantMember joins a user to a tenant with a role. Unique on (tenant_id, user_id).
type TenantMember struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
