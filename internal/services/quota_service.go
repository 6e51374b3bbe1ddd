package services

import (
	"context"
	"errors"

	"forgestudio/internal/models"
	"forgestudio/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QuotaService meters per-tenant resource usage against configured limits.
type QuotaService interface {
	// Check reads the counters without reserving anything. A tenant without
	// a quota row is treated as having no quota at all (fail closed).
	Check(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource) (*models.Usage, error)
	// Reserve atomically claims capacity; false means the limit is reached.
	Reserve(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) (bool, error)
	// Release returns previously reserved capacity.
	Release(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) error
	// UpdateUsage applies a raw signed delta; counters never go below zero.
	UpdateUsage(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) error
	Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantQuota, error)
}

type quotaService struct {
	quotaRepo repositories.QuotaRepository
}

func NewQuotaService(quotaRepo repositories.QuotaRepository) QuotaService {
	return &quotaService{quotaRepo: quotaRepo}
}

func (s *quotaService) Check(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource) (*models.Usage, error) {
	quota, err := s.quotaRepo.GetByTenantID(ctx, tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.Usage{Allowed: false, Current: 0, Limit: 0}, nil
	}
	if err != nil {
		return nil, err
	}

	var current, limit int64
	switch resource {
	case models.QuotaProjects:
		current, limit = quota.UsedProjects, quota.MaxProjects
	case models.QuotaUsers:
		current, limit = quota.UsedUsers, quota.MaxUsers
	case models.QuotaRequirements:
		current, limit = quota.UsedRequirements, quota.MaxRequirements
	case models.QuotaAIRequests:
		current, limit = quota.UsedAIRequests, quota.MaxAIRequests
	case models.QuotaStorage:
		current, limit = quota.UsedStorage, quota.MaxStorage
	default:
		return &models.Usage{Allowed: false, Current: 0, Limit: 0}, nil
	}

	return &models.Usage{Allowed: current < limit, Current: current, Limit: limit}, nil
}

func (s *quotaService) Reserve(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) (bool, error) {
	return s.quotaRepo.TryReserve(ctx, tenantID, resource, delta)
}

func (s *quotaService) Release(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) error {
	return s.quotaRepo.Increment(ctx, tenantID, resource, -delta)
}

func (s *quotaService) UpdateUsage(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) error {
	return s.quotaRepo.Increment(ctx, tenantID, resource, delta)
}

func (s *quotaService) Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantQuota, error) {
	return s.quotaRepo.GetByTenantID(ctx, tenantID)
}
