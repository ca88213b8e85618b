package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // S3-compatible endpoint (MinIO, R2); path-style addressing when set
	AccessKey string
	SecretKey string
	// PublicBaseURL overrides how durable URLs are built, e.g. a CDN origin.
	PublicBaseURL string
}

type S3Bucket struct {
	client *s3.Client
	opts   S3Options
}

var _ Bucket = (*S3Bucket)(nil)

func NewS3Bucket(ctx context.Context, opts S3Options) (*S3Bucket, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET not set")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Bucket{client: client, opts: opts}, nil
}

func (b *S3Bucket) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	// Payload signing over plain HTTP needs a seekable body.
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.opts.Bucket),
		Key:         aws.String(objectPath),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objectPath, err)
	}

	return objectPath, nil
}

func (b *S3Bucket) URL(ctx context.Context, handle string) (string, error) {
	switch {
	case b.opts.PublicBaseURL != "":
		return strings.TrimRight(b.opts.PublicBaseURL, "/") + "/" + handle, nil
	case b.opts.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(b.opts.Endpoint, "/"), b.opts.Bucket, handle), nil
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.opts.Bucket, b.opts.Region, handle), nil
	}
}
