package post

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/instagrab/instagrab-backend/internal/service/post"
)

// PostService defines the interface for the fetch pipeline
type PostService interface {
	Fetch(ctx context.Context, rawURL string) (*post.Result, *post.FetchError)
}

// PostHandler handles requests for post fetch operations
type PostHandler struct {
	service PostService
	logger  *slog.Logger
}

// NewPostHandler creates a new instance of PostHandler
func NewPostHandler(service PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary      Fetch a post
// @Description  Resolves a post URL, stores its media and returns the public URL with metadata
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request  body      FetchPostRequest  true  "Post page URL"
// @Success      200      {object}  FetchPostResponse
// @Failure      400      {object}  ErrorResponse  "Invalid URL"
// @Failure      500      {object}  ErrorResponse  "Pipeline failure"
// @Router       /api/fetch-post [post]
func (h *PostHandler) FetchPost(w http.ResponseWriter, r *http.Request) {
	var req FetchPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, fetchErr := h.service.Fetch(r.Context(), req.URL)
	if fetchErr != nil {
		if fetchErr.Kind == post.KindInvalidURL {
			// Client input error, not a system failure
			h.logger.Debug("rejected invalid post URL", "url", req.URL)
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fetchErr.Message()})
			return
		}

		h.logger.Error("fetch pipeline failed",
			"error_kind", string(fetchErr.Kind),
			"error", fetchErr.Err,
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: fetchErr.Message()})
		return
	}

	writeJSON(w, http.StatusOK, FetchPostResponse{
		MediaURL: result.MediaURL,
		Caption:  result.Caption,
		Likes:    result.Likes,
		Comments: result.Comments,
		IsVideo:  result.IsVideo,
	})
}

// @Summary      Liveness probe
// @Description  Returns a static greeting
// @Tags         health
// @Produce      json
// @Success      200  {object}  HelloResponse
// @Router       /api/hello [get]
func (h *PostHandler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HelloResponse{Message: "Hello World"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
