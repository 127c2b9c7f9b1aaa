// Package storage uploads camera snapshots to an S3 compatible bucket
// (Cloudflare R2 in production).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("snapshot storage is not configured")

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	PublicBaseURL string
}

func (c Config) configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

type R2Client struct {
	client        *s3.Client
	bucket        string
	endpoint      string
	publicBaseURL string
}

// NewR2Client returns ErrNotConfigured when endpoint, keys or bucket are missing.
func NewR2Client(cfg Config) (*R2Client, error) {
	if !cfg.configured() {
		return nil, ErrNotConfigured
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")

	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Client{
		client:        client,
		bucket:        cfg.Bucket,
		endpoint:      endpoint,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// SnapshotKey places a snapshot under snapshots/<yyyy-mm-dd>/ with a random
// name, keeping the original file extension.
func SnapshotKey(at time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("snapshots/%s/%s%s", at.UTC().Format("2006-01-02"), uuid.NewString(), ext)
}

func (r *R2Client) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if r == nil || r.client == nil {
		return "", ErrNotConfigured
	}
	if size <= 0 {
		return "", fmt.Errorf("empty file")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}
	if _, err := r.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("snapshot upload failed: %w", err)
	}
	return r.ObjectURL(key), nil
}

// ObjectURL is the public URL of key, served from PublicBaseURL when set.
func (r *R2Client) ObjectURL(key string) string {
	trimmedKey := strings.TrimLeft(key, "/")
	base := r.endpoint
	if r.publicBaseURL != "" {
		base = r.publicBaseURL
	}
	return fmt.Sprintf("%s/%s/%s", base, r.bucket, trimmedKey)
}
