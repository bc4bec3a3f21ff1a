package corpus

import (
	"context"
	"fmt"
	"os"
)

// StoreType represents the type of corpus storage backend.
type StoreType string

const (
	StoreTypeFS  StoreType = "fs"
	StoreTypeS3  StoreType = "s3"
	StoreTypeGCS StoreType = "gcs"
)

// NewStoreFromEnv creates a corpus store based on environment variables.
//
// Environment variables:
//   - UCF_CORPUS_STORE: "fs" (default), "s3", or "gcs"
//   - UCF_CORPUS_DIR: Base directory for filesystem store (default: "testvectors")
//
// For S3:
//   - AWS_REGION or UCF_CORPUS_S3_REGION
//   - UCF_CORPUS_S3_BUCKET (required)
//   - UCF_CORPUS_S3_ENDPOINT (optional, for MinIO/LocalStack)
//   - UCF_CORPUS_S3_PREFIX (optional)
//
// For GCS:
//   - UCF_CORPUS_GCS_BUCKET (required)
//   - UCF_CORPUS_GCS_PREFIX (optional)
func NewStoreFromEnv(ctx context.Context) (Store, error) {
	storeType := StoreType(os.Getenv("UCF_CORPUS_STORE"))
	if storeType == "" {
		storeType = StoreTypeFS
	}

	switch storeType {
	case StoreTypeFS:
		return newFileStoreFromEnv()
	case StoreTypeS3:
		return newS3StoreFromEnv(ctx)
	case StoreTypeGCS:
		return newGCSStoreFromEnv(ctx)
	default:
		return nil, fmt.Errorf("unsupported corpus storage type: %s", storeType)
	}
}

func newFileStoreFromEnv() (Store, error) {
	dir := os.Getenv("UCF_CORPUS_DIR")
	if dir == "" {
		dir = "testvectors"
	}
	return NewFileStore(dir)
}

func newS3StoreFromEnv(ctx context.Context) (Store, error) {
	bucket := os.Getenv("UCF_CORPUS_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("UCF_CORPUS_S3_BUCKET is required for S3 storage")
	}

	region := os.Getenv("UCF_CORPUS_S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	cfg := S3StoreConfig{
		Bucket:   bucket,
		Region:   region,
		Endpoint: os.Getenv("UCF_CORPUS_S3_ENDPOINT"),
		Prefix:   os.Getenv("UCF_CORPUS_S3_PREFIX"),
	}

	return NewS3Store(ctx, cfg)
}
