package services

import (
	"context"
	"errors"
	"testing"

	"forgestudio/internal/authz"
	"forgestudio/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ActiveMember(t *testing.T) {
	repo := &MockMembershipRepository{}
	repo.Test(t)
	svc := NewMembershipService(repo)

	userID, tenantID := uuid.New(), uuid.New()
	repo.On("GetActive", context.Background(), tenantID, userID).
		Return(&models.TenantMember{TenantID: tenantID, UserID: userID, Role: string(authz.RoleMember)}, nil)

	ok, err := svc.Validate(context.Background(), userID, tenantID)
	require.NoError(t, err)
	assert.True(t, ok)
	repo.AssertExpectations(t)
}

func TestValidate_NotAMember(t *testing.T) {
	repo := &MockMembershipRepository{}
	repo.Test(t)
	svc := NewMembershipService(repo)

	userID, tenantID := uuid.New(), uuid.New()
	repo.On("GetActive", context.Background(), tenantID, userID).Return(nil, pgx.ErrNoRows)

	// A missing membership is a clean "no", not an error.
	ok, err := svc.Validate(context.Background(), userID, tenantID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate_RepoError(t *testing.T) {
	repo := &MockMembershipRepository{}
	repo.Test(t)
	svc := NewMembershipService(repo)

	userID, tenantID := uuid.New(), uuid.New()
	repo.On("GetActive", context.Background(), tenantID, userID).
		Return(nil, errors.New("connection reset"))

	ok, err := svc.Validate(context.Background(), userID, tenantID)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRoleFor(t *testing.T) {
	repo := &MockMembershipRepository{}
	repo.Test(t)
	svc := NewMembershipService(repo)

	userID, tenantID := uuid.New(), uuid.New()
	repo.On("GetActive", context.Background(), tenantID, userID).
		Return(&models.TenantMember{TenantID: tenantID, UserID: userID, Role: string(authz.RoleManager)}, nil)

	role, err := svc.RoleFor(context.Background(), userID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, string(authz.RoleManager), role)
}

func TestRoleFor_NotAMember(t *testing.T) {
	repo := &MockMembershipRepository{}
	repo.Test(t)
	svc := NewMembershipService(repo)

	userID, tenantID := uuid.New(), uuid.New()
	repo.On("GetActive", context.Background(), tenantID, userID).Return(nil, pgx.ErrNoRows)

	_, err := svc.RoleFor(context.Background(), userID, tenantID)
	assert.ErrorIs(t, err, ErrNotAMember)
}
