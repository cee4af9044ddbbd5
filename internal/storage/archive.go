package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AIrWong777/my--literature-app/internal/config"
)

// Archiver mirrors stored files to an off-box S3-compatible archive.
// Mirroring is best-effort with no retries: the local filesystem stays
// the store of record and callers log mirror failures and move on.
type Archiver interface {
	// Put uploads a mirrored copy under key (the file's root-relative
	// path) using streaming I/O.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes a mirrored copy by key.
	Delete(ctx context.Context, key string) error
}

// minioArchive implements Archiver against an S3-compatible backend
// (MinIO, AWS S3, etc.). It is safe for concurrent use by multiple
// goroutines.
type minioArchive struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchive creates the archive client backed by MinIO. It
// validates connectivity and ensures the bucket exists (creates it if
// missing).
func NewMinIOArchive(cfg config.ArchiveConfig) (Archiver, error) {
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

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioArchive{client: cli, bucket: cfg.Bucket}, nil
}

// Put uploads the mirrored copy using streaming I/O only.
func (a *minioArchive) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Delete removes the mirrored copy by key.
func (a *minioArchive) Delete(ctx context.Context, key string) error {
	return a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{})
}
