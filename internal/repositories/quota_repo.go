package repositories

import (
	"context"
	"fmt"

	"forgestudio/internal/models"

	"github.com/google/uuid"
)

type QuotaRepository interface {
	Create(ctx context.Context, quota *models.TenantQuota) error
	GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.TenantQuota, error)
	// Increment applies a signed delta to the resource's used counter,
	// flooring at zero.
	Increment(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) error
	// TryReserve is a single conditional increment: it succeeds only when the
	// resulting used counter stays within the limit. Returns false when the
	// quota row is missing or the reservation would exceed the limit.
	TryReserve(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) (bool, error)
	// SetUsage overwrites a used counter; the background reconciler uses it
	// to repair drift.
	SetUsage(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, value int64) error
}

type quotaRepo struct {
	db DB
}

func NewQuotaRepository(db DB) QuotaRepository {
	return &quotaRepo{db: db}
}

// Column names per resource. Resources outside this table are a programming
// error, surfaced as a plain error rather than interpolated into SQL.
var quotaColumns = map[models.QuotaResource]struct {
	used string
	max  string
}{
	models.QuotaProjects:     {used: "used_projects", max: "max_projects"},
	models.QuotaUsers:        {used: "used_users", max: "max_users"},
	models.QuotaRequirements: {used: "used_requirements", max: "max_requirements"},
	models.QuotaAIRequests:   {used: "used_ai_requests", max: "max_ai_requests"},
	models.QuotaStorage:      {used: "used_storage", max: "max_storage"},
}

func (r *quotaRepo) Create(ctx context.Context, quota *models.TenantQuota) error {
	query := `
		INSERT INTO tenant_quotas (id, tenant_id,
			max_projects, used_projects, max_users, used_users,
			max_requirements, used_requirements, max_ai_requests, used_ai_requests,
			max_storage, used_storage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, quota.ID, quota.TenantID,
		quota.MaxProjects, quota.UsedProjects, quota.MaxUsers, quota.UsedUsers,
		quota.MaxRequirements, quota.UsedRequirements, quota.MaxAIRequests, quota.UsedAIRequests,
		quota.MaxStorage, quota.UsedStorage)
	return err
}

func (r *quotaRepo) GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.TenantQuota, error) {
	quota := &models.TenantQuota{}
	query := `
		SELECT id, tenant_id,
			max_projects, used_projects, max_users, used_users,
			max_requirements, used_requirements, max_ai_requests, used_ai_requests,
			max_storage, used_storage, created_at, updated_at
		FROM tenant_quotas
		WHERE tenant_id = $1
	`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&quota.ID, &quota.TenantID,
		&quota.MaxProjects, &quota.UsedProjects, &quota.MaxUsers, &quota.UsedUsers,
		&quota.MaxRequirements, &quota.UsedRequirements, &quota.MaxAIRequests, &quota.UsedAIRequests,
		&quota.MaxStorage, &quota.UsedStorage, &quota.CreatedAt, &quota.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return quota, nil
}

func (r *quotaRepo) Increment(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) error {
	cols, ok := quotaColumns[resource]
	if !ok {
		return fmt.Errorf("unknown quota resource: %s", resource)
	}
	query := fmt.Sprintf(`
		UPDATE tenant_quotas
		SET %s = GREATEST(%s + $1, 0), updated_at = NOW()
		WHERE tenant_id = $2
	`, cols.used, cols.used)
	_, err := r.db.Exec(ctx, query, delta, tenantID)
	return err
}

func (r *quotaRepo) TryReserve(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, delta int64) (bool, error) {
	cols, ok := quotaColumns[resource]
	if !ok {
		return false, fmt.Errorf("unknown quota resource: %s", resource)
	}
	query := fmt.Sprintf(`
		UPDATE tenant_quotas
		SET %s = GREATEST(%s + $1, 0), updated_at = NOW()
		WHERE tenant_id = $2 AND %s + $1 <= %s
	`, cols.used, cols.used, cols.used, cols.max)
	tag, err := r.db.Exec(ctx, query, delta, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *quotaRepo) SetUsage(ctx context.Context, tenantID uuid.UUID, resource models.QuotaResource, value int64) error {
	cols, ok := quotaColumns[resource]
	if !ok {
		return fmt.Errorf("unknown quota resource: %s", resource)
	}
	if value < 0 {
		value = 0
	}
	query := fmt.Sprintf(`
		UPDATE tenant_quotas
		SET %s = $1, updated_at = NOW()
		WHERE tenant_id = $2
	`, cols.used)
	_, err := r.db.Exec(ctx, query, value, tenantID)
	return err
}
