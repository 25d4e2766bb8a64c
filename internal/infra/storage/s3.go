package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/log"
)

type S3Uploader struct {
	Client        *s3.Client
	Bucket        string
	PresignExpiry time.Duration
}

func NewS3Uploader(client *s3.Client, bucket string, expiry time.Duration) *S3Uploader {
	return &S3Uploader{Client: client, Bucket: bucket, PresignExpiry: expiry}
}

func (u *S3Uploader) Upload(ctx context.Context, params renovation.UploadParams) (string, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("s3").With(
		"bucket", u.Bucket,
		"name", params.Name,
		"content_type", params.ContentType,
	)
	logger.Info("uploading to s3")

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(params.Name),
		ContentType: aws.String(params.ContentType),
		Body:        bytes.NewReader(params.Data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	presigned, err := s3.NewPresignClient(u.Client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(params.Name),
	}, s3.WithPresignExpires(presignExpiry(u.PresignExpiry)))
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return presigned.URL, nil
}

// Check implements the readiness probe
func (u *S3Uploader) Check(ctx context.Context) error {
	_, err := u.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.Bucket)})
	return err
}
