package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/karlis-benefelds/forum-transcriber/pkg/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactStore keeps job artifacts (transcript JSON, CSV reports) in
// MinIO. The bucket stays private; access goes through presigned URLs
// because artifacts contain student names.
type ArtifactStore struct {
	client *minio.Client
	bucket string
}

// NewArtifactStore creates a MinIO-backed artifact store and ensures
// the bucket exists.
func NewArtifactStore(cfg *config.StorageConfig) (*ArtifactStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &ArtifactStore{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	ctx := context.Background()
	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return store, nil
}

func (s *ArtifactStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// TranscriptKey is the object key for a job's transcript JSON.
func TranscriptKey(jobID uuid.UUID) string {
	return fmt.Sprintf("transcripts/%s.json", jobID)
}

// ReportKey is the object key for a job's CSV report.
func ReportKey(jobID uuid.UUID) string {
	return fmt.Sprintf("reports/%s.csv", jobID)
}

// UploadJSON marshals v and stores it under objectName.
func (s *ArtifactStore) UploadJSON(ctx context.Context, objectName string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	return s.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), "application/json")
}

// UploadCSV stores CSV content under objectName.
func (s *ArtifactStore) UploadCSV(ctx context.Context, objectName string, content []byte) error {
	return s.Upload(ctx, objectName, bytes.NewReader(content), int64(len(content)), "text/csv")
}

// Upload stores a stream under objectName.
func (s *ArtifactStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}
	return nil
}

// Download returns the content of objectName.
func (s *ArtifactStore) Download(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// PresignedURL returns a time-limited download URL for objectName.
func (s *ArtifactStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// List lists artifact keys under a prefix.
func (s *ArtifactStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing artifacts: %w", object.Err)
		}
		keys = append(keys, object.Key)
	}

	return keys, nil
}
