package post

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instagrab/instagrab-backend/internal/client/instagram"
	"github.com/instagrab/instagrab-backend/internal/downloader"
	postservice "github.com/instagrab/instagrab-backend/internal/service/post"
)

// fakeStorage implements storage.Provider in memory.
type fakeStorage struct {
	baseURL string
	objects map[string][]byte
	types   map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		baseURL: "https://acct.blob/container",
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return f.ObjectURL(key), nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) ObjectURL(key string) string {
	return f.baseURL + "/" + key
}

// newPipeline wires real components against a fake Instagram and a fake CDN.
func newPipeline(t *testing.T, upstream http.Handler) (*PostHandler, *fakeStorage) {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	client, err := instagram.NewClient(instagram.Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	store := newFakeStorage()
	service := postservice.NewService(client, downloader.NewHTTPDownloader(0), store, postservice.Timeouts{}, testLogger())

	return NewPostHandler(service, testLogger()), store
}

func TestPipeline_ImagePostEndToEnd(t *testing.T) {
	imagePayload := make([]byte, 200)

	mux := http.NewServeMux()
	var cdnURL string
	mux.HandleFunc("/p/ABC123/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"graphql": {
				"shortcode_media": {
					"shortcode": "ABC123",
					"display_url": %q,
					"is_video": false,
					"edge_media_to_caption": {"edges": [{"node": {"text": "hello"}}]},
					"edge_media_preview_like": {"count": 10},
					"edge_media_to_parent_comment": {"count": 2}
				}
			}
		}`, cdnURL)
	})
	mux.HandleFunc("/img.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(imagePayload)
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	cdnURL = server.URL + "/img.jpg"

	client, err := instagram.NewClient(instagram.Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	store := newFakeStorage()
	service := postservice.NewService(client, downloader.NewHTTPDownloader(0), store, postservice.Timeouts{}, testLogger())
	handler := NewPostHandler(service, testLogger())

	rr := httptest.NewRecorder()
	handler.FetchPost(rr, fetchRequest(t, `{"url": "https://instagram.com/p/ABC123/?utm=1"}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp FetchPostResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Regexp(t, `^https://acct\.blob/container/ABC123_[0-9a-f]{32}\.jpg$`, resp.MediaURL)
	assert.Equal(t, "hello", resp.Caption)
	assert.Equal(t, 10, resp.Likes)
	assert.Equal(t, 2, resp.Comments)
	assert.False(t, resp.IsVideo)

	// The stored object is the exact downloaded payload with the image type
	require.Len(t, store.objects, 1)
	for key, data := range store.objects {
		assert.Equal(t, imagePayload, data)
		assert.Equal(t, downloader.ContentTypeJPEG, store.types[key])
	}
}

func TestPipeline_InvalidURLMakesNoNetworkCalls(t *testing.T) {
	var upstreamCalls atomic.Int32
	handler, store := newPipeline(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
	}))

	rr := httptest.NewRecorder()
	handler.FetchPost(rr, fetchRequest(t, `{"url": "not a url"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "URL is invalid", resp.Error)

	assert.Zero(t, upstreamCalls.Load())
	assert.Empty(t, store.objects)
}

func TestPipeline_PostNotFoundNeverTouchesStorage(t *testing.T) {
	handler, store := newPipeline(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	rr := httptest.NewRecorder()
	handler.FetchPost(rr, fetchRequest(t, `{"url": "https://instagram.com/p/GONE/"}`))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "could not be found")

	assert.Empty(t, store.objects)
}

func TestPipeline_MediaDownloadFailureNeverTouchesStorage(t *testing.T) {
	mux := http.NewServeMux()
	var cdnURL string
	mux.HandleFunc("/p/ABC123/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"graphql": {"shortcode_media": {"shortcode": "ABC123", "display_url": %q, "is_video": false}}}`, cdnURL)
	})
	mux.HandleFunc("/img.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	cdnURL = server.URL + "/img.jpg"

	client, err := instagram.NewClient(instagram.Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	store := newFakeStorage()
	service := postservice.NewService(client, downloader.NewHTTPDownloader(0), store, postservice.Timeouts{}, testLogger())
	handler := NewPostHandler(service, testLogger())

	rr := httptest.NewRecorder()
	handler.FetchPost(rr, fetchRequest(t, `{"url": "https://instagram.com/p/ABC123/"}`))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "could not download")
	assert.Empty(t, store.objects)
}
