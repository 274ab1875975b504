package post

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/instagrab/instagrab-backend/internal/client/instagram"
	"github.com/instagrab/instagrab-backend/internal/downloader"
	"github.com/instagrab/instagrab-backend/internal/storage"
)

// UpstreamClient resolves a shortcode to post metadata and a media source URL.
type UpstreamClient interface {
	GetPost(ctx context.Context, shortcode string) (*instagram.Post, error)
}

// Downloader fetches the binary media payload at a source URL.
type Downloader interface {
	Download(ctx context.Context, sourceURL string, isVideo bool) (*downloader.Media, error)
}

// Result is the success payload of one fetch: the public URL of the stored
// media plus the post metadata.
type Result struct {
	MediaURL string
	Caption  string
	Likes    int
	Comments int
	IsVideo  bool
}

// Timeouts bound each I/O stage of the pipeline. A stage hitting its
// deadline fails with that stage's error kind.
type Timeouts struct {
	Upstream time.Duration
	Download time.Duration
	Upload   time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Upstream == 0 {
		t.Upstream = 15 * time.Second
	}
	if t.Download == 0 {
		t.Download = 30 * time.Second
	}
	if t.Upload == 0 {
		t.Upload = 30 * time.Second
	}
	return t
}

// Service runs the fetch pipeline: resolve the URL, look up the post, download
// the media, store it, assemble the response. Each stage short-circuits on
// failure; there is no partial success and no retry.
type Service struct {
	upstream   UpstreamClient
	downloader Downloader
	storage    storage.Provider
	timeouts   Timeouts
	logger     *slog.Logger
}

// NewService creates a new fetch pipeline service.
func NewService(upstream UpstreamClient, dl Downloader, store storage.Provider, timeouts Timeouts, logger *slog.Logger) *Service {
	return &Service{
		upstream:   upstream,
		downloader: dl,
		storage:    store,
		timeouts:   timeouts.withDefaults(),
		logger:     logger,
	}
}

// Fetch resolves rawURL to a post, persists its media and returns the public
// URL together with the metadata. On failure it returns a *FetchError naming
// the failed stage.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*Result, *FetchError) {
	shortcode, err := instagram.ExtractShortcode(rawURL)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, Err: err}
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, s.timeouts.Upstream)
	defer cancel()

	postData, err := s.upstream.GetPost(upstreamCtx, shortcode)
	if err != nil {
		return nil, &FetchError{Kind: upstreamErrorKind(err), Err: err}
	}

	downloadCtx, cancel := context.WithTimeout(ctx, s.timeouts.Download)
	defer cancel()

	media, err := s.downloader.Download(downloadCtx, postData.MediaSourceURL(), postData.IsVideo)
	if err != nil {
		return nil, &FetchError{Kind: KindMediaDownloadFailed, Err: err}
	}

	key := buildStorageKey(shortcode, postData.IsVideo)

	uploadCtx, cancel := context.WithTimeout(ctx, s.timeouts.Upload)
	defer cancel()

	mediaURL, err := s.storage.Upload(uploadCtx, key, bytes.NewReader(media.Data), int64(len(media.Data)), media.ContentType)
	if err != nil {
		return nil, &FetchError{Kind: storageErrorKind(err), Err: err}
	}

	s.logger.Info("post media stored",
		"shortcode", shortcode,
		"key", key,
		"content_type", media.ContentType,
		"size", len(media.Data),
	)

	return &Result{
		MediaURL: mediaURL,
		Caption:  postData.Caption,
		Likes:    postData.Likes,
		Comments: postData.Comments,
		IsVideo:  postData.IsVideo,
	}, nil
}

// upstreamErrorKind maps upstream client failures onto pipeline error kinds.
// Anything unclassified counts as the provider being unavailable.
func upstreamErrorKind(err error) ErrorKind {
	switch {
	case errors.Is(err, instagram.ErrPostNotFound):
		return KindPostNotFound
	case errors.Is(err, instagram.ErrPrivatePost):
		return KindPrivatePost
	default:
		return KindUpstreamUnavailable
	}
}

func storageErrorKind(err error) ErrorKind {
	if errors.Is(err, storage.ErrQuotaExceeded) {
		return KindStorageQuotaExceeded
	}
	return KindStorageUnavailable
}
