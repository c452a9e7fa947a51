package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"digisewa/internal/config"
)

// minioStorage implements Storage on an S3-compatible backend (MinIO, AWS S3)
// for deployments that run without a pinning provider. The blob's sha256 is
// used as the object key so addressing stays content-derived. It is safe for
// concurrent use by multiple goroutines.
type minioStorage struct {
	client        *minio.Client
	bucket        string
	retryAttempts int
	retryDelay    time.Duration
}

// NewMinIO creates a content-addressed blob store backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig, retryAttempts int, retryDelay time.Duration) (Storage, error) {
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

	return &minioStorage{
		client:        cli,
		bucket:        cfg.Bucket,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}, nil
}

// Put uploads the blob under its sha256 and returns that key as the content
// address. Re-uploading identical bytes overwrites the same object, which is
// harmless.
func (m *minioStorage) Put(ctx context.Context, blob []byte, opt PutOptions) (string, error) {
	sum := sha256.Sum256(blob)
	key := "blobs/" + hex.EncodeToString(sum[:])

	meta := map[string]string{}
	for k, v := range opt.Metadata {
		meta[k] = v
	}
	if opt.Name != "" {
		meta["original-name"] = opt.Name
	}

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(blob), int64(len(blob)), minio.PutObjectOptions{
		ContentType:  "application/octet-stream",
		UserMetadata: meta,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return key, nil
}

// Get downloads a blob by its content address with the same bounded retry
// policy as the pinning backend.
func (m *minioStorage) Get(ctx context.Context, contentAddress string) ([]byte, error) {
	return getWithRetry(ctx, m.retryAttempts, m.retryDelay, func(ctx context.Context) ([]byte, error) {
		obj, err := m.client.GetObject(ctx, m.bucket, contentAddress, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}
		defer obj.Close()
		return io.ReadAll(obj)
	})
}
