package repositories

import (
	"context"

	"forgestudio/internal/models"

	"github.com/google/uuid"
)

type AttachmentRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, att *models.Attachment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Attachment, error)
	ListByProject(ctx context.Context, tenantID, projectID uuid.UUID, limit, offset int) ([]*models.Attachment, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error)
	SumSizeByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type attachmentRepo struct {
	db DB
}

func NewAttachmentRepository(db DB) AttachmentRepository {
	return &attachmentRepo{db: db}
}

const attachmentColumns = `id, tenant_id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at`

func (r *attachmentRepo) Create(ctx context.Context, tenantID uuid.UUID, att *models.Attachment) error {
	att.TenantID = tenantID
	query := `
		INSERT INTO attachments (id, tenant_id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, att.ID, att.TenantID, att.ProjectID, att.UploadedBy,
		att.FileName, att.ObjectKey, att.ContentType, att.SizeBytes)
	return err
}

func (r *attachmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Attachment, error) {
	att := &models.Attachment{}
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1 AND tenant_id = $2`
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&att.ID, &att.TenantID, &att.ProjectID, &att.UploadedBy, &att.FileName,
		&att.ObjectKey, &att.ContentType, &att.SizeBytes, &att.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return att, nil
}

func (r *attachmentRepo) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID, limit, offset int) ([]*models.Attachment, error) {
	query := `
		SELECT ` + attachmentColumns + `
		FROM attachments
		WHERE tenant_id = $1 AND project_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var atts []*models.Attachment
	for rows.Next() {
		att := &models.Attachment{}
		if err := rows.Scan(&att.ID, &att.TenantID, &att.ProjectID, &att.UploadedBy, &att.FileName,
			&att.ObjectKey, &att.ContentType, &att.SizeBytes, &att.CreatedAt); err != nil {
			return nil, err
		}
		atts = append(atts, att)
	}
	return atts, rows.Err()
}

func (r *attachmentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	query := `DELETE FROM attachments WHERE id = $1 AND tenant_id = $2`
	tag, err := r.db.Exec(ctx, query, id, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *attachmentRepo) SumSizeByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(size_bytes), 0) FROM attachments WHERE tenant_id = $1`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&total)
	return total, err
}
