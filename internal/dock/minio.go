package dock

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ Dock = (*MinioDock)(nil)

// Options configures connectivity to the MinIO (or any S3-compatible)
// endpoint.
type Options struct {
	Endpoint  string // may carry an http:// or https:// scheme prefix
	AccessKey string
	SecretKey string
	Bucket    string
	URLExpiry time.Duration
}

// MinioDock stores photos in a single bucket.
type MinioDock struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinioDock builds a MinIO client. The scheme prefix on the endpoint
// decides whether TLS is used.
func NewMinioDock(opts Options) (*MinioDock, error) {
	endpoint := opts.Endpoint
	useSSL := true
	if strings.HasPrefix(endpoint, "http://") {
		useSSL = false
		endpoint = strings.TrimPrefix(endpoint, "http://")
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}

	return &MinioDock{
		client:    client,
		bucket:    opts.Bucket,
		urlExpiry: expiry,
	}, nil
}

// EnsureBucket creates the photo bucket if it does not exist yet. Called once
// at startup.
func (d *MinioDock) EnsureBucket(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", d.bucket, err)
	}
	if exists {
		return nil
	}
	if err := d.client.MakeBucket(ctx, d.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", d.bucket, err)
	}
	return nil
}

// Upload stores one photo and returns the object name it was stored under.
// Names get a random prefix so two uploads of "plan.png" cannot clobber each
// other.
func (d *MinioDock) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := uuid.NewString()[:8] + "-" + sanitizeFilename(filename)
	_, err := d.client.PutObject(ctx, d.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", objectName, err)
	}
	return objectName, nil
}

// PresignedURL returns a time-limited download link for an uploaded photo.
func (d *MinioDock) PresignedURL(ctx context.Context, objectName string) (string, error) {
	u, err := d.client.PresignedGetObject(ctx, d.bucket, objectName, d.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", objectName, err)
	}
	return u.String(), nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	// Drop any client-supplied path components.
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "photo"
	}
	return name
}
