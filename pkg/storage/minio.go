// Package storage provides the MinIO/S3-backed asset store for note images.
//
// Objects are addressed by image key. Keys are resolved to presigned GET URLs
// on demand and are never persisted as URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ghuser/notekeeper/pkg/config"
	"github.com/ghuser/notekeeper/pkg/logger"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
)

const defaultURLTTL = 15 * time.Minute

// URLCache memoizes presigned URLs. pkg/cache.URLCache satisfies it.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, url string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MinioStore stores note images in a single bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
	urls   URLCache // optional
	log    logger.Logger
}

// NewMinioStore builds a client from the MINIO_* settings. urls may be nil.
// It does not contact the server; call EnsureBucket at startup.
func NewMinioStore(cfg *config.Config, urls URLCache, log logger.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioRootUser, cfg.MinioRootPassword, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: new minio client: %w", err)
	}

	ttl := cfg.AssetURLTTL
	if ttl <= 0 {
		ttl = defaultURLTTL
	}

	return &MinioStore{
		client: client,
		bucket: cfg.MinioBucket,
		urlTTL: ttl,
		urls:   urls,
		log:    log,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: make bucket %s: %w", s.bucket, err)
	}
	s.log.InfoContext(ctx, "storage: bucket created", "bucket", s.bucket)
	return nil
}

// ResolveURL returns a presigned GET URL for key.
// Returns ErrAssetNotFound when no object is stored under key (for example
// while its upload is still in flight).
func (s *MinioStore) ResolveURL(ctx context.Context, key string) (string, error) {
	if s.urls != nil {
		if url, ok, err := s.urls.Get(ctx, key); err != nil {
			s.log.WarnContext(ctx, "storage: url cache read failed", "key", key, "error", err)
		} else if ok {
			return url, nil
		}
	}

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("resolve %s: %w", key, notedomain.ErrAssetNotFound)
		}
		return "", fmt.Errorf("storage: stat %s: %w", key, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlTTL, nil)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	url := u.String()

	// Cache for half the signature lifetime so a cached URL is never expired.
	if s.urls != nil {
		if err := s.urls.Set(ctx, key, url, s.urlTTL/2); err != nil {
			s.log.WarnContext(ctx, "storage: url cache write failed", "key", key, "error", err)
		}
	}
	return url, nil
}

// Upload stores size bytes from body under key. A negative size streams with
// multipart upload.
func (s *MinioStore) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: ContentTypeFor(key),
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// Remove deletes the object stored under key and drops any cached URL.
// Removing a missing object is not an error.
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return fmt.Errorf("storage: remove %s: %w", key, err)
	}
	if s.urls != nil {
		if err := s.urls.Delete(ctx, key); err != nil {
			s.log.WarnContext(ctx, "storage: url cache delete failed", "key", key, "error", err)
		}
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("storage: ping: %w", err)
	}
	return nil
}

// ContentTypeFor guesses the MIME type from the key's extension.
func ContentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		resp = minio.ToErrorResponse(err)
	}
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
