package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"lifevault/internal/config"
)

// minioBackend implements Backend against an S3-compatible object store
// (MinIO, AWS S3, etc.). Object keys use the same layout as the local
// backend; the address is built deterministically from the configured
// endpoint and bucket so it never depends on provider-returned locations.
// It is safe for concurrent use by multiple goroutines.
type minioBackend struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIO creates a new S3-compatible storage backend.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (Backend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	mb := &minioBackend{
		client:  cli,
		bucket:  cfg.Bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return mb, nil
}

var _ Backend = (*minioBackend)(nil)

// Put uploads an object using streaming I/O only (no local disk).
func (m *minioBackend) Put(ctx context.Context, ownerID, recordID, originalName string, r io.Reader, opt PutOptions) (Object, error) {
	if r == nil {
		return Object{}, fmt.Errorf("reader is nil")
	}
	key := objectKey(ownerID, recordID, originalName)

	info, err := m.client.PutObject(ctx, m.bucket, key, r, opt.Size, minio.PutObjectOptions{
		ContentType: opt.ContentType,
		UserMetadata: map[string]string{
			"original-filename": originalName,
		},
	})
	if err != nil {
		return Object{}, err
	}

	return Object{
		Key:      key,
		Filename: path.Base(key),
		Size:     info.Size,
		URL:      m.URL(key),
	}, nil
}

// Delete removes an object by key.
func (m *minioBackend) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// URL builds the deterministic address from the configured endpoint, bucket
// and key.
func (m *minioBackend) URL(key string) string {
	return m.baseURL + "/" + key
}
