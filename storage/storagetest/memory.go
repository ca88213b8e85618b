// Package storagetest provides an in-memory Bucket for tests.
package storagetest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
)

type Object struct {
	Data        []byte
	ContentType string
}

// MemoryBucket stores objects in a map and can serve them over HTTP, so the
// URLs it hands out resolve when mounted on an httptest server.
type MemoryBucket struct {
	BaseURL   string
	UploadErr error

	mu      sync.Mutex
	objects map[string]Object
	uploads int
}

func NewMemoryBucket(baseURL string) *MemoryBucket {
	return &MemoryBucket{BaseURL: baseURL, objects: make(map[string]Object)}
}

func (b *MemoryBucket) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	b.mu.Lock()
	b.uploads++
	uploadErr := b.UploadErr
	b.mu.Unlock()

	if uploadErr != nil {
		return "", uploadErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.objects[objectPath] = Object{Data: data, ContentType: contentType}
	b.mu.Unlock()

	return objectPath, nil
}

func (b *MemoryBucket) URL(ctx context.Context, handle string) (string, error) {
	return strings.TrimRight(b.BaseURL, "/") + "/" + handle, nil
}

func (b *MemoryBucket) Object(path string) (Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[path]
	return obj, ok
}

func (b *MemoryBucket) Objects() map[string]Object {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]Object, len(b.objects))
	for k, v := range b.objects {
		out[k] = v
	}
	return out
}

// Uploads counts Upload calls, including failed ones.
func (b *MemoryBucket) Uploads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploads
}

func (b *MemoryBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	obj, ok := b.Object(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	_, _ = w.Write(obj.Data)
}
