package archive

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/choiway/loupebox/internal/config"
)

// Bucket stores objects in one MinIO/S3 bucket.
type Bucket struct {
	client *minio.Client
	bucket string
	region string
}

// NewBucket creates a MinIO client from the archive settings.
func NewBucket(cfg config.Archive) (*Bucket, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Bucket{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (b *Bucket) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", b.bucket, err)
	}
	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", b.bucket, err)
		}
	}
	return nil
}

func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s: %w", key, err)
}

func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := b.client.PutObject(ctx, b.bucket, key, r, size, opts); err != nil {
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	return nil
}
