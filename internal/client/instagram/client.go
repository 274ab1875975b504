package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Upstream failure classes surfaced to the pipeline.
var (
	ErrPostNotFound = errors.New("post not found")
	ErrPrivatePost  = errors.New("post is private")
	ErrUnavailable  = errors.New("instagram unavailable")
	ErrLoginFailed  = errors.New("instagram login failed")
)

// userAgent mimics a desktop browser; the web endpoints reject unknown clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Post holds the metadata of a single post as reported by Instagram.
type Post struct {
	Shortcode  string
	Caption    string
	Likes      int
	Comments   int
	IsVideo    bool
	DisplayURL string
	VideoURL   string
}

// MediaSourceURL returns the single source URL to download: the video source
// for video posts, the image source otherwise. The two are mutually
// exclusive downstream.
func (p *Post) MediaSourceURL() string {
	if p.IsVideo {
		return p.VideoURL
	}
	return p.DisplayURL
}

// Config holds the settings for the Instagram client.
type Config struct {
	// BaseURL of the Instagram web frontend. Defaults to the public site;
	// overridden in tests.
	BaseURL string

	// Username and Password are optional. When empty the client only
	// fetches public posts.
	Username string
	Password string

	// Timeout bounds a single HTTP exchange. Per-request deadlines are
	// passed via context by the caller.
	Timeout time.Duration
}

// Client talks to the Instagram web JSON endpoints. It is safe for
// concurrent use; the session cookie jar is populated once during Login.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string

	authenticated bool
	logger        *slog.Logger
}

// NewClient creates a new Instagram client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.instagram.com"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}, nil
}

// Authenticated reports whether a login session is active.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// Login authenticates against Instagram with the configured credentials.
// Returns ErrLoginFailed when the credentials are rejected. Callers are
// expected to treat a failure as non-fatal: public posts remain fetchable
// without a session.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("%w: no credentials configured", ErrLoginFailed)
	}

	csrfToken, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLoginFailed, err)
	}

	form := url.Values{}
	form.Set("username", c.username)
	// Browser-style password envelope; a zeroed key id means plaintext
	// transport over TLS.
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), c.password))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accounts/login/ajax/", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLoginFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", csrfToken)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLoginFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: login endpoint returned status %d", ErrLoginFailed, resp.StatusCode)
	}

	var loginResp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return fmt.Errorf("%w: decode login response: %s", ErrLoginFailed, err)
	}
	if !loginResp.Authenticated {
		return fmt.Errorf("%w: credentials rejected for user %q", ErrLoginFailed, c.username)
	}

	c.authenticated = true
	c.logger.Info("instagram login succeeded", "auth_status", "authenticated", "username", c.username)
	return nil
}

// fetchCSRFToken primes the session by loading the login page and reading
// the csrftoken cookie Instagram sets on it.
func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts/login/", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "csrftoken" {
			return cookie.Value, nil
		}
	}
	return "", errors.New("no csrftoken cookie in login page response")
}

// postResponse mirrors the web JSON payload for a single post page.
type postResponse struct {
	RequireLogin bool `json:"require_login"`
	Graphql      struct {
		ShortcodeMedia *shortcodeMedia `json:"shortcode_media"`
	} `json:"graphql"`
}

type shortcodeMedia struct {
	Shortcode          string `json:"shortcode"`
	DisplayURL         string `json:"display_url"`
	IsVideo            bool   `json:"is_video"`
	VideoURL           string `json:"video_url"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
	EdgeMediaPreviewLike struct {
		Count int `json:"count"`
	} `json:"edge_media_preview_like"`
	EdgeMediaToParentComment struct {
		Count int `json:"count"`
	} `json:"edge_media_to_parent_comment"`
}

// GetPost looks up a post by shortcode and returns its metadata together
// with the media source URL. The media itself is not downloaded here.
func (c *Client) GetPost(ctx context.Context, shortcode string) (*Post, error) {
	endpoint := fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", c.baseURL, url.PathEscape(shortcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: shortcode %q", ErrPostNotFound, shortcode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: shortcode %q (auth_status=%s)", ErrPrivatePost, shortcode, c.authStatus())
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d for shortcode %q", ErrUnavailable, resp.StatusCode, shortcode)
	}

	var postResp postResponse
	if err := json.NewDecoder(resp.Body).Decode(&postResp); err != nil {
		return nil, fmt.Errorf("%w: decode post response: %s", ErrUnavailable, err)
	}

	if postResp.RequireLogin && !c.authenticated {
		return nil, fmt.Errorf("%w: shortcode %q requires login", ErrPrivatePost, shortcode)
	}

	media := postResp.Graphql.ShortcodeMedia
	if media == nil {
		return nil, fmt.Errorf("%w: shortcode %q", ErrPostNotFound, shortcode)
	}

	post := &Post{
		Shortcode:  shortcode,
		Likes:      media.EdgeMediaPreviewLike.Count,
		Comments:   media.EdgeMediaToParentComment.Count,
		IsVideo:    media.IsVideo,
		DisplayURL: media.DisplayURL,
		VideoURL:   media.VideoURL,
	}
	if edges := media.EdgeMediaToCaption.Edges; len(edges) > 0 {
		post.Caption = edges[0].Node.Text
	}

	return post, nil
}

func (c *Client) authStatus() string {
	if c.authenticated {
		return "authenticated"
	}
	return "anonymous"
}
