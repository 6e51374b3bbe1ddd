package repositories

import (
	"context"

	"forgestudio/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MembershipRepository interface {
	Create(ctx context.Context, member *models.TenantMember) error
	// GetActive returns the membership only when its status is ACTIVE.
	GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.TenantMember, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.TenantMember, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.TenantMember, error)
	UpdateRole(ctx context.Context, tenantID, userID uuid.UUID, role string) (int64, error)
	UpdateStatus(ctx context.Context, tenantID, userID uuid.UUID, status string) (int64, error)
	CountActiveByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type membershipRepo struct {
	db DB
}

func NewMembershipRepository(db DB) MembershipRepository {
	return &membershipRepo{db: db}
}

const memberColumns = `id, tenant_id, user_id, role, status, created_at, updated_at`

func (r *membershipRepo) Create(ctx context.Context, member *models.TenantMember) error {
	query := `
		INSERT INTO tenant_members (id, tenant_id, user_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, member.ID, member.TenantID, member.UserID, member.Role, member.Status)
	return err
}

func (r *membershipRepo) GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.TenantMember, error) {
	member := &models.TenantMember{}
	query := `
		SELECT ` + memberColumns + `
		FROM tenant_members
		WHERE tenant_id = $1 AND user_id = $2 AND status = $3
	`
	err := r.db.QueryRow(ctx, query, tenantID, userID, models.MemberStatusActive).Scan(
		&member.ID, &member.TenantID, &member.UserID, &member.Role, &member.Status,
		&member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *membershipRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.TenantMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM tenant_members
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID, models.MemberStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

func (r *membershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.TenantMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM tenant_members
		WHERE tenant_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

func (r *membershipRepo) UpdateRole(ctx context.Context, tenantID, userID uuid.UUID, role string) (int64, error) {
	query := `
		UPDATE tenant_members SET role = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND user_id = $3
	`
	tag, err := r.db.Exec(ctx, query, role, tenantID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *membershipRepo) UpdateStatus(ctx context.Context, tenantID, userID uuid.UUID, status string) (int64, error) {
	query := `
		UPDATE tenant_members SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND user_id = $3
	`
	tag, err := r.db.Exec(ctx, query, status, tenantID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *membershipRepo) CountActiveByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM tenant_members WHERE tenant_id = $1 AND status = $2`
	err := r.db.QueryRow(ctx, query, tenantID, models.MemberStatusActive).Scan(&count)
	return count, err
}

func scanMembers(rows pgx.Rows) ([]*models.TenantMember, error) {
	var members []*models.TenantMember
	for rows.Next() {
		member := &models.TenantMember{}
		if err := rows.Scan(&member.ID, &member.TenantID, &member.UserID, &member.Role,
			&member.Status, &member.CreatedAt, &member.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
