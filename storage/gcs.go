package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

type GCSBucket struct {
	cl         *storage.Client
	projectID  string
	bucketName string
}

var _ Bucket = (*GCSBucket)(nil)

// NewGCSBucket uses Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS, defaulting to ./credentials.json in main).
func NewGCSBucket(ctx context.Context, projectID, bucketName string) (*GCSBucket, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("GSC_BUCKET_NAME not set")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSBucket{
		cl:         client,
		projectID:  projectID,
		bucketName: bucketName,
	}, nil
}

func (b *GCSBucket) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*50)
	defer cancel()

	wc := b.cl.Bucket(b.bucketName).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}

	return objectPath, nil
}

// URL returns the public object URL; the bucket must grant allUsers read.
func (b *GCSBucket) URL(ctx context.Context, handle string) (string, error) {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucketName, handle), nil
}

// MakePublic grants allUsers objectViewer on the bucket.
func (b *GCSBucket) MakePublic(ctx context.Context) error {
	bucket := b.cl.Bucket(b.bucketName)

	policy, err := bucket.IAM().Policy(ctx)
	if err != nil {
		return err
	}

	policy.Add("allUsers", "roles/storage.objectViewer")

	return bucket.IAM().SetPolicy(ctx, policy)
}

func (b *GCSBucket) Close() error {
	return b.cl.Close()
}
