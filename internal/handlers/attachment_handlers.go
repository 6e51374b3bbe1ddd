package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"forgestudio/internal/common"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"
	"forgestudio/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

const presignedURLExpiry = 15 * time.Minute

// AttachmentHandlers stores project files in object storage. Upload charges
// the storage quota by file size; delete returns it.
type AttachmentHandlers struct {
	attachmentRepo repositories.AttachmentRepository
	projectRepo    repositories.ProjectRepository
	storageSvc     services.StorageService
	quotaSvc       services.QuotaService
	bucketName     string
}

func NewAttachmentHandlers(
	attachmentRepo repositories.AttachmentRepository,
	projectRepo repositories.ProjectRepository,
	storageSvc services.StorageService,
	quotaSvc services.QuotaService,
	bucketName string,
) *AttachmentHandlers {
	return &AttachmentHandlers{
		attachmentRepo: attachmentRepo,
		projectRepo:    projectRepo,
		storageSvc:     storageSvc,
		quotaSvc:       quotaSvc,
		bucketName:     bucketName,
	}
}

// Upload accepts a multipart file for a project.
func (h *AttachmentHandlers) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)
	userID, _ := common.GetUserIDFromContext(ctx)

	projectID, err := common.ValidateUUID(c.FormValue("projectId"), "projectId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	if _, err := h.projectRepo.GetByID(ctx, tenantID, projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFound(c, "Project")
		}
		log.Printf("ERROR: failed to load project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "File is required")
	}

	reserved, err := h.quotaSvc.Reserve(ctx, tenantID, models.QuotaStorage, fileHeader.Size)
	if err != nil {
		log.Printf("ERROR: failed to reserve storage quota for tenant %s: %v", tenantID, err)
		return common.SendInternalError(c)
	}
	if !reserved {
		usage, _ := h.quotaSvc.Check(ctx, tenantID, models.QuotaStorage)
		details := map[string]interface{}{"resource": models.QuotaStorage}
		if usage != nil {
			details["current"] = usage.Current
			details["limit"] = usage.Limit
		}
		return common.SendError(c, http.StatusTooManyRequests, common.CodeQuotaExceeded, "Storage quota exceeded", details)
	}

	releaseQuota := func() {
		if relErr := h.quotaSvc.Release(ctx, tenantID, models.QuotaStorage, fileHeader.Size); relErr != nil {
			log.Printf("WARN: failed to release storage quota for tenant %s: %v", tenantID, relErr)
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		releaseQuota()
		log.Printf("ERROR: failed to open uploaded file: %v", err)
		return common.SendInternalError(c)
	}
	defer src.Close()

	objectKey := services.BuildObjectKey(tenantID, projectID, fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")

	if err := h.storageSvc.Upload(ctx, h.bucketName, objectKey, src, fileHeader.Size, contentType); err != nil {
		releaseQuota()
		log.Printf("ERROR: failed to store attachment %s: %v", objectKey, err)
		return common.SendInternalError(c)
	}

	attachment := &models.Attachment{
		ID:          uuid.New(),
		ProjectID:   projectID,
		UploadedBy:  userID,
		FileName:    fileHeader.Filename,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   fileHeader.Size,
	}
	if err := h.attachmentRepo.Create(ctx, tenantID, attachment); err != nil {
		if delErr := h.storageSvc.Delete(ctx, h.bucketName, objectKey); delErr != nil {
			log.Printf("WARN: failed to remove orphaned object %s: %v", objectKey, delErr)
		}
		releaseQuota()
		log.Printf("ERROR: failed to record attachment: %v", err)
		return common.SendInternalError(c)
	}

	return common.SendSuccess(c, http.StatusCreated, attachment)
}

// List returns a project's attachments.
func (h *AttachmentHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	projectID, err := common.ValidateUUID(c.QueryParam("projectId"), "projectId")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	limit, offset := parsePagination(c)
	attachments, err := h.attachmentRepo.ListByProject(ctx, tenantID, projectID, limit, offset)
	if err != nil {
		log.Printf("ERROR: failed to list attachments for project %s: %v", projectID, err)
		return common.SendInternalError(c)
	}
	return common.SendSuccess(c, http.StatusOK, attachments)
}

// Download returns a short-lived presigned URL for the attachment.
func (h *AttachmentHandlers) Download(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	attachmentID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	attachment, err := h.attachmentRepo.GetByID(ctx, tenantID, attachmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Attachment")
	}
	if err != nil {
		log.Printf("ERROR: failed to load attachment %s: %v", attachmentID, err)
		return common.SendInternalError(c)
	}

	url, err := h.storageSvc.GetPresignedURL(ctx, h.bucketName, attachment.ObjectKey, presignedURLExpiry)
	if err != nil {
		log.Printf("ERROR: failed to presign attachment %s: %v", attachmentID, err)
		return common.SendInternalError(c)
	}

	return common.SendSuccess(c, http.StatusOK, map[string]interface{}{
		"url":       url,
		"fileName":  attachment.FileName,
		"expiresIn": int64(presignedURLExpiry.Seconds()),
	})
}

// Delete removes the attachment record and object, returning its size to the
// storage quota.
func (h *AttachmentHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)

	attachmentID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, err.Error())
	}

	attachment, err := h.attachmentRepo.GetByID(ctx, tenantID, attachmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFound(c, "Attachment")
	}
	if err != nil {
		log.Printf("ERROR: failed to load attachment %s: %v", attachmentID, err)
		return common.SendInternalError(c)
	}

	affected, err := h.attachmentRepo.Delete(ctx, tenantID, attachmentID)
	if err != nil {
		log.Printf("ERROR: failed to delete attachment %s: %v", attachmentID, err)
		return common.SendInternalError(c)
	}
	if affected == 0 {
		return common.SendNotFound(c, "Attachment")
	}

	if err := h.storageSvc.Delete(ctx, h.bucketName, attachment.ObjectKey); err != nil {
		log.Printf("WARN: failed to remove object %s: %v", attachment.ObjectKey, err)
	}
	if err := h.quotaSvc.Release(ctx, tenantID, models.QuotaStorage, attachment.SizeBytes); err != nil {
		log.Printf("WARN: failed to release storage quota for tenant %s: %v", tenantID, err)
	}

	return common.SendSuccess(c, http.StatusOK, map[string]string{"message": "Attachment deleted"})
}
