//go:build gcp

package corpus

import (
	"context"
	"fmt"
	"os"
)

func newGCSStoreFromEnv(ctx context.Context) (Store, error) {
	bucket := os.Getenv("UCF_CORPUS_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("UCF_CORPUS_GCS_BUCKET is required for GCS storage")
	}

	cfg := GCSStoreConfig{
		Bucket: bucket,
		Prefix: os.Getenv("UCF_CORPUS_GCS_PREFIX"),
	}

	return NewGCSStore(ctx, cfg)
}
