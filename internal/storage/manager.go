// Package storage wraps the S3-compatible object store: bucket lifecycle,
// uploads, presigned retrieval, deletion and listing. All backend calls run
// on a dedicated worker pool so a backlog of uploads never starves the
// download pool.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mediagrab/internal/config"
	"mediagrab/internal/models"
	"mediagrab/internal/pool"
)

// ErrObjectNotFound is returned when an operation targets a key that was
// never uploaded or has been deleted. Callers rely on telling this apart
// from generic backend failures.
var ErrObjectNotFound = errors.New("object not found")

// regionalEndpoints maps a region to its Wasabi S3 endpoint.
var regionalEndpoints = map[string]string{
	"us-east-1":      "s3.wasabisys.com",
	"us-east-2":      "s3.us-east-2.wasabisys.com",
	"us-west-1":      "s3.us-west-1.wasabisys.com",
	"eu-central-1":   "s3.eu-central-1.wasabisys.com",
	"eu-west-1":      "s3.eu-west-1.wasabisys.com",
	"eu-west-2":      "s3.eu-west-2.wasabisys.com",
	"ap-northeast-1": "s3.ap-northeast-1.wasabisys.com",
	"ap-northeast-2": "s3.ap-northeast-2.wasabisys.com",
	"ap-southeast-1": "s3.ap-southeast-1.wasabisys.com",
	"ap-southeast-2": "s3.ap-southeast-2.wasabisys.com",
}

func endpointForRegion(region string) string {
	if ep, ok := regionalEndpoints[region]; ok {
		return ep
	}
	return "s3.wasabisys.com"
}

// Manager is the storage publisher. It is initialized once at startup and
// shared read-only across all concurrent jobs.
type Manager struct {
	client  *minio.Client
	bucket  string
	region  string
	workers *pool.Pool
}

// NewManager builds the client and verifies the bucket is usable, creating it
// if absent. Any failure here should be treated as fatal by the caller: the
// process must not start accepting requests against a broken backend.
func NewManager(ctx context.Context, cfg config.Config, workers *pool.Pool) (*Manager, error) {
	if cfg.StorageAccessKey == "" || cfg.StorageSecretKey == "" || cfg.StorageBucket == "" {
		return nil, errors.New("missing storage credentials, check STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY and STORAGE_BUCKET")
	}

	endpoint := cfg.StorageEndpoint
	if endpoint == "" {
		endpoint = endpointForRegion(cfg.StorageRegion)
	}
	log.Printf("Connecting to storage region %s, endpoint %s", cfg.StorageRegion, endpoint)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
		Region: cfg.StorageRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	m := &Manager{
		client:  client,
		bucket:  cfg.StorageBucket,
		region:  cfg.StorageRegion,
		workers: workers,
	}
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", m.bucket, err)
	}
	if exists {
		log.Printf("Bucket %q exists and is accessible", m.bucket)
		return nil
	}

	// Only non-default regions take a location constraint.
	opts := minio.MakeBucketOptions{}
	if m.region != "us-east-1" {
		opts.Region = m.region
	}
	if err := m.client.MakeBucket(ctx, m.bucket, opts); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", m.bucket, err)
	}
	log.Printf("Created bucket %q in region %q", m.bucket, m.region)
	return nil
}

// Healthy reports whether the bucket is still reachable.
func (m *Manager) Healthy(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("bucket check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q no longer exists", m.bucket)
	}
	return nil
}

// Upload stores content under a fresh random key that keeps the original
// extension, and attaches the sanitized filename as metadata. The key is
// never derived from the user-supplied name.
func (m *Manager) Upload(ctx context.Context, content []byte, filename, contentType string) (string, error) {
	v, err := m.workers.Do(func() (any, error) {
		return m.upload(ctx, content, filename, contentType)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) upload(ctx context.Context, content []byte, filename, contentType string) (string, error) {
	ext := "bin"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = filename[i+1:]
	}
	key := uuid.NewString() + "." + ext

	opts := minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"Original-Filename": SanitizeFilename(filename),
			"Upload-Timestamp":  strconv.FormatInt(time.Now().Unix(), 10),
		},
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(content), int64(len(content)), opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", filename, err)
	}

	log.Printf("Uploaded %q with key %s (%d bytes)", filename, key, len(content))
	return key, nil
}

// PresignedURL issues a time-limited link for key. The link forces attachment
// disposition and a generic binary content type at fetch time. Presigning a
// key that was never written surfaces ErrObjectNotFound.
func (m *Manager) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	v, err := m.workers.Do(func() (any, error) {
		return m.presignedURL(ctx, key, expiry)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) presignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	// Confirm the object exists before handing out a link for it.
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return "", fmt.Errorf("failed to check object %s: %w", key, err)
	}

	params := make(url.Values)
	params.Set("response-content-disposition", "attachment")
	params.Set("response-content-type", "application/octet-stream")

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	log.Printf("Generated presigned URL for %s, expires in %s", key, expiry)
	return u.String(), nil
}

// Delete removes key, reporting success as a boolean. Failures are logged,
// never raised; deletion is best-effort.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	_, err := m.workers.Do(func() (any, error) {
		return nil, m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	})
	if err != nil {
		log.Printf("Failed to delete object %s: %v", key, err)
		return false
	}
	log.Printf("Deleted object %s", key)
	return true
}

// List returns up to maxKeys objects under prefix.
func (m *Manager) List(ctx context.Context, prefix string, maxKeys int) ([]models.ObjectDescriptor, error) {
	v, err := m.workers.Do(func() (any, error) {
		return m.list(ctx, prefix, maxKeys)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ObjectDescriptor), nil
}

func (m *Manager) list(ctx context.Context, prefix string, maxKeys int) ([]models.ObjectDescriptor, error) {
	// Cancelling the listing context once we have enough keys lets the
	// client's producer goroutine exit instead of blocking on the channel.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]models.ObjectDescriptor, 0, maxKeys)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		objects = append(objects, models.ObjectDescriptor{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         strings.Trim(obj.ETag, `"`),
		})
		if len(objects) >= maxKeys {
			break
		}
	}
	return objects, nil
}
