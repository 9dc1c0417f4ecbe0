// Package snapshot publishes each user's latest state export to an
// S3-compatible bucket and hands out short-lived download links for it.
// Without a bucket the NoopUploader keeps exports on local disk only.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/hasad/internal/config"
)

// ErrNotConfigured is returned by PresignedURL when no bucket is configured.
var ErrNotConfigured = errors.New("snapshot storage not configured")

// DefaultURLExpiry applies when the configured expiry is not positive.
const DefaultURLExpiry = 15 * time.Minute

// Uploader publishes exports and links to them.
type Uploader interface {
	// Upload replaces the user's published export with the file at path.
	Upload(ctx context.Context, userID, path string) error

	// PresignedURL links to the user's published export until the returned
	// expiry.
	PresignedURL(ctx context.Context, userID string) (link string, expiresAt time.Time, err error)
}

// objectStore is the subset of *minio.Client the uploader calls.
type objectStore interface {
	FPutObject(ctx context.Context, bucket, object, path string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
}

var _ objectStore = (*minio.Client)(nil)

// S3Uploader publishes exports to one bucket, one object per user.
type S3Uploader struct {
	objects   objectStore
	bucket    string
	urlExpiry time.Duration
	now       func() time.Time
}

// Upload stores path as the user's export object.
func (u *S3Uploader) Upload(ctx context.Context, userID, path string) error {
	_, err := u.objects.FPutObject(ctx, u.bucket, objectKey(userID), path, minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: map[string]string{"user-id": userID},
	})
	if err != nil {
		return fmt.Errorf("upload export for %s: %w", userID, err)
	}
	return nil
}

// PresignedURL signs a GET for the user's export that downloads as
// hasad-<user>.json.
func (u *S3Uploader) PresignedURL(ctx context.Context, userID string) (string, time.Time, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName(userID)))

	issued := u.now()
	link, err := u.objects.PresignedGetObject(ctx, u.bucket, objectKey(userID), u.urlExpiry, params)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign export for %s: %w", userID, err)
	}
	return link.String(), issued.Add(u.urlExpiry), nil
}

// NoopUploader is used when no bucket is configured.
type NoopUploader struct{}

// Upload does nothing; the export stays on local disk.
func (NoopUploader) Upload(context.Context, string, string) error { return nil }

// PresignedURL always returns ErrNotConfigured.
func (NoopUploader) PresignedURL(context.Context, string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewUploader returns a NoopUploader for an empty bucket and an S3Uploader
// otherwise. TLS defaults on unless use_ssl or an http:// endpoint says not.
func NewUploader(cfg config.SnapshotStorageConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}
	endpoint := stripScheme(cfg.Endpoint, &useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}
	return newS3Uploader(client, cfg.Bucket, time.Duration(cfg.URLExpiry)), nil
}

func newS3Uploader(objects objectStore, bucket string, expiry time.Duration) *S3Uploader {
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return &S3Uploader{objects: objects, bucket: bucket, urlExpiry: expiry, now: time.Now}
}

// stripScheme drops an http:// or https:// prefix, which minio rejects, and
// lets the scheme decide useSSL.
func stripScheme(endpoint string, useSSL *bool) string {
	if host, ok := strings.CutPrefix(endpoint, "https://"); ok {
		*useSSL = true
		return host
	}
	if host, ok := strings.CutPrefix(endpoint, "http://"); ok {
		*useSSL = false
		return host
	}
	return endpoint
}

// objectKey is the object holding a user's latest export.
func objectKey(userID string) string {
	return userID + "/export/state.json"
}

func downloadName(userID string) string {
	return "hasad-" + userID + ".json"
}
