package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// Storage failure classes the pipeline distinguishes between.
var (
	ErrUnavailable   = errors.New("storage unavailable")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Provider определяет интерфейс для загрузки и получения файлов
type Provider interface {
	// Upload persists the object under key and returns its public URL.
	// size is the content length, contentType the MIME type.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)

	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error

	// ObjectURL returns the public URL for an already stored object.
	ObjectURL(key string) string
}
