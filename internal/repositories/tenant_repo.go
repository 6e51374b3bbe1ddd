package repositories

import (
	"context"

	"forgestudio/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	// Register atomically creates the user, the tenant, its ADMIN membership
	// and its quota row, and points the user at the new tenant.
	Register(ctx context.Context, user *models.User, tenant *models.Tenant, member *models.TenantMember, quota *models.TenantQuota) error
}

type tenantRepo struct {
	db DB
}

func NewTenantRepository(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, slug, plan, status, admin_id, created_at, updated_at`

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Plan, &tenant.Status,
		&tenant.AdminID, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Plan, &tenant.Status,
		&tenant.AdminID, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, slug = $2, plan = $3, status = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, tenant.Name, tenant.Slug, tenant.Plan, tenant.Status, tenant.ID)
	return err
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Plan, &tenant.Status,
			&tenant.AdminID, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) Register(ctx context.Context, user *models.User, tenant *models.Tenant, member *models.TenantMember, quota *models.TenantQuota) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, name, avatar, password_hash, current_tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, NOW(), NOW())
	`, user.ID, user.Email, user.Name, user.Avatar, user.PasswordHash)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, plan, status, admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`, tenant.ID, tenant.Name, tenant.Slug, tenant.Plan, tenant.Status, tenant.AdminID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tenant_members (id, tenant_id, user_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, member.ID, member.TenantID, member.UserID, member.Role, member.Status)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tenant_quotas (id, tenant_id,
			max_projects, used_projects, max_users, used_users,
			max_requirements, used_requirements, max_ai_requests, used_ai_requests,
			max_storage, used_storage, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, 1, $5, 0, $6, 0, $7, 0, NOW(), NOW())
	`, quota.ID, quota.TenantID, quota.MaxProjects, quota.MaxUsers, quota.MaxRequirements, quota.MaxAIRequests, quota.MaxStorage)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE users SET current_tenant_id = $1, updated_at = NOW() WHERE id = $2`, tenant.ID, user.ID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
