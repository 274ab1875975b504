package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/instagrab/instagrab-backend/internal/storage"
)

// compile-time check that Provider satisfies the storage interface.
var _ storage.Provider = (*Provider)(nil)

// Config holds the connection settings for the MinIO backend.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// PublicBaseURL is the scheme+host under which stored objects are
	// publicly reachable, e.g. "https://media.example.com".
	PublicBaseURL string
}

// Provider wraps the MinIO SDK and implements storage.Provider.
type Provider struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewProvider creates a new MinIO storage provider.
func NewProvider(cfg Config) (*Provider, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	return &Provider{
		client:        mc,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (p *Provider) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

// Upload streams the payload into the bucket under key. Existing objects
// under the same key are overwritten. Returns the public object URL.
func (p *Provider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}

	if _, err := p.client.PutObject(ctx, p.bucket, key, reader, size, opts); err != nil {
		return "", classifyError(key, err)
	}

	return p.ObjectURL(key), nil
}

// Delete removes an object from the bucket by key.
func (p *Provider) Delete(ctx context.Context, key string) error {
	if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return classifyError(key, err)
	}
	return nil
}

// ObjectURL returns the stable public URL for a stored object. The shape
// {base}/{bucket}/{key} is part of the storage contract; clients cache and
// re-derive these URLs.
func (p *Provider) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", p.publicBaseURL, p.bucket, key)
}

// Endpoint returns the configured endpoint, for startup logging.
func (p *Provider) Endpoint() string {
	return p.client.EndpointURL().Host
}

// classifyError maps MinIO SDK errors onto the storage failure classes.
func classifyError(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "QuotaExceeded" || resp.StatusCode == http.StatusInsufficientStorage {
		return fmt.Errorf("object %q: %w: %s", key, storage.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("object %q: %w: %s", key, storage.ErrUnavailable, err)
}
