package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"customereye/config"
	"customereye/models"

	"github.com/apex/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore wraps an S3-compatible bucket for report data files.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// New connects to the configured bucket. Returns nil when object storage is
// not configured; callers treat a nil store as "inline storage only".
func New(cfg *config.Config) (*ObjectStore, error) {
	if !cfg.ObjectStorageConfigured() {
		return nil, nil
	}

	endpoint := cfg.S3Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	secure := !strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	log.Infof("Object storage configured for bucket %s", cfg.S3Bucket)
	return &ObjectStore{client: client, bucket: cfg.S3Bucket}, nil
}

// Upload stores data under the given key.
func (s *ObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Fetch reads an object back in full.
func (s *ObjectStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// ObjectKey builds the bucket key for one data file:
// companies/{slug}-{country}/reports/{tier}/{version}/data/{category}/{filename}
func ObjectKey(slug, country, tier, version, category, filename string) string {
	company := slug
	if country != "" {
		company = fmt.Sprintf("%s-%s", slug, strings.ToLower(country))
	}
	return fmt.Sprintf("companies/%s/reports/%s/%s/data/%s/%s",
		company, strings.ToLower(tier), version, category, filename)
}

// ResolveContent returns the raw bytes for a file's content location. This
// is the single resolution path for all four storage variants; store may be
// nil when object storage is not configured.
func ResolveContent(ctx context.Context, store *ObjectStore, loc models.ContentLocation) ([]byte, error) {
	switch loc.Kind {
	case models.ContentInline:
		return loc.Bytes, nil
	case models.ContentInlineText:
		return []byte(loc.Text), nil
	case models.ContentLocalPath:
		data, err := os.ReadFile(loc.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local file %s: %w", loc.LocalPath, err)
		}
		return data, nil
	case models.ContentObjectKey:
		if store == nil {
			return nil, fmt.Errorf("object storage not configured, cannot resolve key %s", loc.ObjectKey)
		}
		return store.Fetch(ctx, loc.ObjectKey)
	default:
		return nil, fmt.Errorf("unknown content location kind %q", loc.Kind)
	}
}
