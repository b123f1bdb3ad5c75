package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore holds tenant files (product images, attachments). Object
// keys are always prefixed with the tenant id so one tenant can never
// address another tenant's objects.
type ObjectStore interface {
	Upload(ctx context.Context, tenantID uuid.UUID, objectName, contentType string, reader io.Reader, size int64) (string, error)
	PresignedURL(ctx context.Context, tenantID uuid.UUID, objectKey string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, tenantID uuid.UUID, objectKey string) error
	EnsureBucketExists(ctx context.Context) error
}

type minioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStore{client: client, bucket: bucket}, nil
}

func tenantKey(tenantID uuid.UUID, objectName string) string {
	return fmt.Sprintf("%s/%s", tenantID.String(), objectName)
}

func (m *minioStore) Upload(ctx context.Context, tenantID uuid.UUID, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	key := tenantKey(tenantID, objectName)
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *minioStore) PresignedURL(ctx context.Context, tenantID uuid.UUID, objectKey string, expiry time.Duration) (string, error) {
	prefix := tenantID.String() + "/"
	if len(objectKey) <= len(prefix) || objectKey[:len(prefix)] != prefix {
		return "", fmt.Errorf("object key %q does not belong to tenant %s", objectKey, tenantID)
	}
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioStore) Delete(ctx context.Context, tenantID uuid.UUID, objectKey string) error {
	prefix := tenantID.String() + "/"
	if len(objectKey) <= len(prefix) || objectKey[:len(prefix)] != prefix {
		return fmt.Errorf("object key %q does not belong to tenant %s", objectKey, tenantID)
	}
	return m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (m *minioStore) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
