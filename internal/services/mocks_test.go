package services

import (
	"context"
	"time"

	"forgestudio/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Register(ctx context.Context, user *models.User, tenant *models.Tenant, member *models.TenantMember, quota *models.TenantQuota) error {
	args := m.Called(ctx, user, tenant, member, quota)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateCurrentTenant(ctx context.Context, userID, tenantID uuid.UUID) error {
	args := m.Called(ctx, userID, tenantID)
	return args.Error(0)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, member *models.TenantMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMembershipRepository) GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.TenantMember, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantMember), args.Error(1)
}

func (m *MockMembershipRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.TenantMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantMember), args.Error(1)
}

func (m *MockMembershipRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.TenantMember, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantMember), args.Error(1)
}

func (m *MockMembershipRepository) UpdateRole(ctx context.Context, tenantID, userID uuid.UUID, role string) (int64, error) {
	args := m.Called(ctx, tenantID, userID, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembershipRepository) UpdateStatus(ctx context.Context, tenantID, userID uuid.UUID, status string) (int64, error) {
	args := m.Called(ctx, tenantID, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembershipRepository) CountActiveByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

type MockQuotaRepository struct {
	mock.Mock
}

func (m *MockQuotaRepository) Create(ctx context.Context, quota *models.TenantQuota) error {
	args := m.Called(ctx, quota)
	return args.Error(0)
}

func (m *MockQuotaRepository) GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.TenantQuota, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantQuota), args.Error(1)
}

func (m *MockQuotaRepository) Increment(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) error {
	args := m.Called(ctx, tenantID, resource, delta)
	return args.Error(0)
}

func (m *MockQuotaRepository) TryReserve(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) (bool, error) {
	args := m.Called(ctx, tenantID, resource, delta)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuotaRepository) SetUsage(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, value int64) error {
	args := m.Called(ctx, tenantID, resource, value)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockCacheService) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	args := m.Called(ctx, tenant, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTenant(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockCacheService) GetAnalysis(ctx context.Context, contentHash string) (string, error) {
	args := m.Called(ctx, contentHash)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) SetAnalysis(ctx context.Context, contentHash, result string, ttl time.Duration) error {
	args := m.Called(ctx, contentHash, result, ttl)
	return args.Error(0)
}

func (m *MockCacheService) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockCacheService) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
