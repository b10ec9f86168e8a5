// Package dock stores building photos in S3-compatible object storage and
// hands out presigned download links. It shares no state with the graph
// engine.
package dock

import (
	"context"
	"io"
)

// Dock is the photo storage contract. The HTTP layer depends on this
// interface so tests can substitute an in-memory implementation.
type Dock interface {
	EnsureBucket(ctx context.Context) error
	Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectName string) (string, error)
}
