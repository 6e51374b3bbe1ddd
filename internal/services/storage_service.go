package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageService stores tenant attachments in object storage. Object keys are
// always prefixed with the tenant id so objects cannot collide across tenants.
type StorageService interface {
	Upload(ctx context.Context, bucketName, objectKey string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, bucketName, objectKey string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, bucketName, objectKey string) error
	EnsureBucketExists(ctx context.Context, bucketName string) error
}

type storageService struct {
	client *minio.Client
}

func NewStorageService(endpoint, accessKey, secretKey string, useSSL bool) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &storageService{client: client}, nil
}

// BuildObjectKey creates a tenant-scoped object key for an uploaded file.
func BuildObjectKey(tenantID, projectID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s-%s", tenantID, projectID, uuid.NewString(), fileName)
}

func (s *storageService) Upload(ctx context.Context, bucketName, objectKey string, reader io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *storageService) GetPresignedURL(ctx context.Context, bucketName, objectKey string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, bucketName, objectKey, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (s *storageService) Delete(ctx context.Context, bucketName, objectKey string) error {
	return s.client.RemoveObject(ctx, bucketName, objectKey, minio.RemoveObjectOptions{})
}

func (s *storageService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	found, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	}
	return nil
}
