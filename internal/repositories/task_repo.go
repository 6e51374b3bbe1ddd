package repositories

import (
	"context"

	"forgestudio/internal/models"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, task *models.Task) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, tenantID uuid.UUID, moduleID *uuid.UUID, limit, offset int) ([]*models.Task, error)
	Update(ctx context.Context, tenantID uuid.UUID, task *models.Task) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error)
	SetGeneratedCode(ctx context.Context, tenantID, id uuid.UUID, code string) (int64, error)
}

type taskRepo struct {
	db DB
}

func NewTaskRepository(db DB) TaskRepository {
	return &taskRepo{db: db}
}

const taskColumns = `id, tenant_id, module_id, assignee_id, title, description, type, priority, status, estimated_hours, tech_stack, file_path, generated_code, created_at, updated_at`

func (r *taskRepo) Create(ctx context.Context, tenantID uuid.UUID, task *models.Task) error {
	task.TenantID = tenantID
	query := `
		INSERT INTO tasks (id, tenant_id, module_id, assignee_id, title, description, type, priority, status, estimated_hours, tech_stack, file_path, generated_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, task.ID, task.TenantID, task.ModuleID, task.AssigneeID,
		task.Title, task.Description, task.Type, task.Priority, task.Status,
		task.EstimatedHours, task.TechStack, task.FilePath, task.GeneratedCode)
	return err
}

func (r *taskRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error) {
	task := &models.Task{}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND tenant_id = $2`
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&task.ID, &task.TenantID, &task.ModuleID, &task.AssigneeID, &task.Title,
		&task.Description, &task.Type, &task.Priority, &task.Status, &task.EstimatedHours,
		&task.TechStack, &task.FilePath, &task.GeneratedCode, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepo) List(ctx context.Context, tenantID uuid.UUID, moduleID *uuid.UUID, limit, offset int) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE tenant_id = $1 AND ($2::uuid IS NULL OR module_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, moduleID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(&task.ID, &task.TenantID, &task.ModuleID, &task.AssigneeID, &task.Title,
			&task.Description, &task.Type, &task.Priority, &task.Status, &task.EstimatedHours,
			&task.TechStack, &task.FilePath, &task.GeneratedCode, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *taskRepo) Update(ctx context.Context, tenantID uuid.UUID, task *models.Task) (int64, error) {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, type = $3, priority = $4, status = $5,
			estimated_hours = $6, tech_stack = $7, file_path = $8, assignee_id = $9, updated_at = NOW()
		WHERE id = $10 AND tenant_id = $11
	`
	tag, err := r.db.Exec(ctx, query, task.Title, task.Description, task.Type, task.Priority,
		task.Status, task.EstimatedHours, task.TechStack, task.FilePath, task.AssigneeID,
		task.ID, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *taskRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND tenant_id = $2`
	tag, err := r.db.Exec(ctx, query, id, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *taskRepo) SetGeneratedCode(ctx context.Context, tenantID, id uuid.UUID, code string) (int64, error) {
	query := `UPDATE tasks SET generated_code = $1, updated_at = NOW() WHERE id = $2 AND tenant_id = $3`
	tag, err := r.db.Exec(ctx, query, code, id, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
