// Package storage re-hosts image bytes in an owned object store so that
// gallery records never point at a URL that may expire.
package storage

import (
	"context"
	"io"
)

// Bucket is the blob store used by the gallery and by generators that return
// raw bytes instead of URLs.
type Bucket interface {
	// Upload writes the object and returns a handle for URL.
	Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error)

	// URL resolves a handle to a durable, publicly resolvable URL.
	URL(ctx context.Context, handle string) (string, error)
}
