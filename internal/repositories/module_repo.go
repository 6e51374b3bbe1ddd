package repositories

import (
	"context"

	"forgestudio/internal/models"

	"github.com/google/uuid"
)

type ModuleRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, module *models.Module) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Module, error)
	List(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, limit, offset int) ([]*models.Module, error)
	Update(ctx context.Context, tenantID uuid.UUID, module *models.Module) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error)
}

type moduleRepo struct {
	db DB
}

func NewModuleRepository(db DB) ModuleRepository {
	return &moduleRepo{db: db}
}

const moduleColumns = `id, tenant_id, project_id, requirement_id, name, description, type, priority, status, estimated_hours, created_at, updated_at`

func (r *moduleRepo) Create(ctx context.Context, tenantID uuid.UUID, module *models.Module) error {
	module.TenantID = tenantID
	query := `
		INSERT INTO modules (id, tenant_id, project_id, requirement_id, name, description, type, priority, status, estimated_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, module.ID, module.TenantID, module.ProjectID, module.RequirementID,
		module.Name, module.Description, module.Type, module.Priority, module.Status, module.EstimatedHours)
	return err
}

func (r *moduleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Module, error) {
	module := &models.Module{}
	query := `SELECT ` + moduleColumns + ` FROM modules WHERE id = $1 AND tenant_id = $2`
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&module.ID, &module.TenantID, &module.ProjectID, &module.RequirementID,
		&module.Name, &module.Description, &module.Type, &module.Priority, &module.Status,
		&module.EstimatedHours, &module.CreatedAt, &module.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return module, nil
}

func (r *moduleRepo) List(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, limit, offset int) ([]*models.Module, error) {
	query := `
		SELECT ` + moduleColumns + `
		FROM modules
		WHERE tenant_id = $1 AND ($2::uuid IS NULL OR project_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []*models.Module
	for rows.Next() {
		module := &models.Module{}
		if err := rows.Scan(&module.ID, &module.TenantID, &module.ProjectID, &module.RequirementID,
			&module.Name, &module.Description, &module.Type, &module.Priority, &module.Status,
			&module.EstimatedHours, &module.CreatedAt, &module.UpdatedAt); err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, rows.Err()
}

func (r *moduleRepo) Update(ctx context.Context, tenantID uuid.UUID, module *models.Module) (int64, error) {
	query := `
		UPDATE modules
		SET name = $1, description = $2, type = $3, priority = $4, status = $5, estimated_hours = $6, updated_at = NOW()
		WHERE id = $7 AND tenant_id = $8
	`
	tag, err := r.db.Exec(ctx, query, module.Name, module.Description, module.Type,
		module.Priority, module.Status, module.EstimatedHours, module.ID, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *moduleRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	query := `DELETE FROM modules WHERE id = $1 AND tenant_id = $2`
	tag, err := r.db.Exec(ctx, query, id, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
