// Package storage archives rendered reports to S3-compatible object storage.
// Objects are written once and never read back.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ppiankov/clauselens/internal/model"
)

// ReportStore uploads reports to a MinIO or S3 bucket
type ReportStore struct {
	client     *minio.Client
	bucketName string
	region     string
	useSSL     bool
}

// New connects to the endpoint and creates the bucket if it is missing
func New(ctx context.Context, cfg model.StorageConfig) (*ReportStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("storage endpoint not configured")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket not configured")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &ReportStore{client: cli, bucketName: cfg.Bucket, region: cfg.Region, useSSL: cfg.UseSSL}, nil
}

// Put uploads data under key and returns the object URL. The URL is only
// reachable when the bucket is public.
func (s *ReportStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return ObjectURL(s.useSSL, s.client.EndpointURL().Host, s.bucketName, key), nil
}

// ObjectURL builds the path-style URL of an object
func ObjectURL(useSSL bool, host, bucket, key string) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, host, bucket, key)
}

// ReportKey returns the object key of a report: reports/YYYY/MM/DD/<runID>.json
func ReportKey(runID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s.json", at.UTC().Format("2006/01/02"), runID)
}
