package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// ErrDownloadFailed means the media payload could not be retrieved. This is
// terminal for the whole pipeline; there is no retry at this level.
var ErrDownloadFailed = errors.New("media download failed")

// Content types the pipeline stores. The type is taken from the upstream
// media classification, never sniffed from the payload bytes.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeMP4  = "video/mp4"
)

// Media is a downloaded payload together with its content type.
type Media struct {
	Data        []byte
	ContentType string
}

// HTTPDownloader fetches media binaries over plain HTTP GET.
type HTTPDownloader struct {
	httpClient *http.Client
}

// NewHTTPDownloader creates a downloader with the given exchange timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDownloader{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Download fetches the binary at sourceURL. isVideo selects the stored
// content type: video/mp4 for videos, image/jpeg otherwise.
func (d *HTTPDownloader) Download(ctx context.Context, sourceURL string, isVideo bool) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d from %s", ErrDownloadFailed, resp.StatusCode, sourceURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %s", ErrDownloadFailed, err)
	}

	contentType := ContentTypeJPEG
	if isVideo {
		contentType = ContentTypeMP4
	}

	return &Media{
		Data:        data,
		ContentType: contentType,
	}, nil
}
