package repositories

import (
	"context"

	"forgestudio/internal/models"

	"github.com/google/uuid"
)

// ProjectRepository is the tenant-scoped gateway for projects. Every method
// takes the resolved tenant ID; lookups always include the tenant filter and
// mutations return rows-affected so a cross-tenant ID silently no-ops.
type ProjectRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, project *models.Project) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Project, error)
	Update(ctx context.Context, tenantID uuid.UUID, project *models.Project) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type projectRepo struct {
	db DB
}

func NewProjectRepository(db DB) ProjectRepository {
	return &projectRepo{db: db}
}

const projectColumns = `id, tenant_id, owner_id, name, description, status, created_at, updated_at`

func (r *projectRepo) Create(ctx context.Context, tenantID uuid.UUID, project *models.Project) error {
	// The tenant id comes from the resolved request context, never the payload.
	project.TenantID = tenantID
	query := `
		INSERT INTO projects (id, tenant_id, owner_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, project.ID, project.TenantID, project.OwnerID,
		project.Name, project.Description, project.Status)
	return err
}

func (r *projectRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND tenant_id = $2`
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&project.ID, &project.TenantID, &project.OwnerID, &project.Name,
		&project.Description, &project.Status, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE tenant_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(&project.ID, &project.TenantID, &project.OwnerID, &project.Name,
			&project.Description, &project.Status, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *projectRepo) Update(ctx context.Context, tenantID uuid.UUID, project *models.Project) (int64, error) {
	query := `
		UPDATE projects
		SET name = $1, description = $2, status = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5
	`
	tag, err := r.db.Exec(ctx, query, project.Name, project.Description, project.Status,
		project.ID, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *projectRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	query := `DELETE FROM projects WHERE id = $1 AND tenant_id = $2`
	tag, err := r.db.Exec(ctx, query, id, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *projectRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE tenant_id = $1`, tenantID).Scan(&count)
	return count, err
}
