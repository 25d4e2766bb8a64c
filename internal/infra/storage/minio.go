package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/log"
)

type Store struct {
	client        *minio.Client
	bucketName    string
	region        string
	presignExpiry time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, presignExpiry time.Duration) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region, presignExpiry: presignExpiry}, nil
}

// Upload implementasi ImageStore
func (s *Store) Upload(ctx context.Context, params renovation.UploadParams) (string, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("minio").With(
		"bucket", s.bucketName,
		"name", params.Name,
		"content_type", params.ContentType,
	)
	logger.Info("uploading to minio")

	_, err := s.client.PutObject(ctx, s.bucketName, params.Name,
		bytes.NewReader(params.Data), int64(len(params.Data)),
		minio.PutObjectOptions{ContentType: params.ContentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	// bucket biasanya private, jadi generator butuh presigned URL
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, params.Name, presignExpiry(s.presignExpiry), url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return u.String(), nil
}

// Check implements the readiness probe
func (s *Store) Check(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s not found", s.bucketName)
	}
	return nil
}

// presigned URLs are capped at 7 days by S3 and MinIO
func presignExpiry(d time.Duration) time.Duration {
	const maxExpiry = 7 * 24 * time.Hour
	switch {
	case d <= 0:
		return 24 * time.Hour
	case d > maxExpiry:
		return maxExpiry
	default:
		return d
	}
}
