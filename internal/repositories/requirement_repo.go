package repositories

import (
	"context"

	"forgestudio/internal/models"

	"github.com/google/uuid"
)

type RequirementRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *models.Requirement) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Requirement, error)
	List(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, limit, offset int) ([]*models.Requirement, error)
	Update(ctx context.Context, tenantID uuid.UUID, req *models.Requirement) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type requirementRepo struct {
	db DB
}

func NewRequirementRepository(db DB) RequirementRepository {
	return &requirementRepo{db: db}
}

const requirementColumns = `id, tenant_id, project_id, title, content, type, priority, status, analysis, created_at, updated_at`

func (r *requirementRepo) Create(ctx context.Context, tenantID uuid.UUID, req *models.Requirement) error {
	req.TenantID = tenantID
	query := `
		INSERT INTO requirements (id, tenant_id, project_id, title, content, type, priority, status, analysis, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, req.ID, req.TenantID, req.ProjectID, req.Title,
		req.Content, req.Type, req.Priority, req.Status, req.Analysis)
	return err
}

func (r *requirementRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Requirement, error) {
	req := &models.Requirement{}
	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE id = $1 AND tenant_id = $2`
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&req.ID, &req.TenantID, &req.ProjectID, &req.Title, &req.Content,
		&req.Type, &req.Priority, &req.Status, &req.Analysis, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requirementRepo) List(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, limit, offset int) ([]*models.Requirement, error) {
	query := `
		SELECT ` + requirementColumns + `
		FROM requirements
		WHERE tenant_id = $1 AND ($2::uuid IS NULL OR project_id = $2)
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.Requirement
	for rows.Next() {
		req := &models.Requirement{}
		if err := rows.Scan(&req.ID, &req.TenantID, &req.ProjectID, &req.Title, &req.Content,
			&req.Type, &req.Priority, &req.Status, &req.Analysis, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *requirementRepo) Update(ctx context.Context, tenantID uuid.UUID, req *models.Requirement) (int64, error) {
	query := `
		UPDATE requirements
		SET title = $1, content = $2, type = $3, priority = $4, status = $5, analysis = $6, updated_at = NOW()
		WHERE id = $7 AND tenant_id = $8
	`
	tag, err := r.db.Exec(ctx, query, req.Title, req.Content, req.Type, req.Priority,
		req.Status, req.Analysis, req.ID, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *requirementRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	query := `DELETE FROM requirements WHERE id = $1 AND tenant_id = $2`
	tag, err := r.db.Exec(ctx, query, id, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *requirementRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM requirements WHERE tenant_id = $1`, tenantID).Scan(&count)
	return count, err
}
