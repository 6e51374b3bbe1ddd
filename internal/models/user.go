package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	Name            string     `json:"name" db:"name"`
	Avatar          *string    `json:"avatar,omitempty" db:"avatar"`
	PasswordHash    string     `json:"-" db:"password_hash"` // Never serialize in JSON
	CurrentTenantID *uuid.UUID `json:"current_tenant_id,omitempty" db:"current_tenant_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
