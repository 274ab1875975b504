package post

// API request models

// FetchPostRequest represents a request to fetch and store a post
type FetchPostRequest struct {
	URL string `json:"url"`
}

// API response models

// FetchPostResponse represents the success payload of a fetch
type FetchPostResponse struct {
	MediaURL string `json:"media_url"`
	Caption  string `json:"caption"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	IsVideo  bool   `json:"is_video"`
}

// ErrorResponse represents any failed fetch
type ErrorResponse struct {
	Error string `json:"error"`
}

// HelloResponse is the liveness probe payload
type HelloResponse struct {
	Message string `json:"message"`
}
