package instagram

import (
	"regexp"

	"github.com/pkg/errors"
)

// ErrInvalidURL means the input string does not contain a post path segment.
// This is a client input error, not a system failure.
var ErrInvalidURL = errors.New("invalid post URL")

// Matches the shortcode segment of a post or reel page URL. The shortcode
// runs until the next path separator, query string or fragment.
var shortcodePattern = regexp.MustCompile(`/(?:p|reel)/([^/?#&]+)`)

// ExtractShortcode pulls the post shortcode out of an arbitrary URL string.
// Pure string operation, no network access and no normalization: shortcodes
// are case-sensitive.
func ExtractShortcode(rawURL string) (string, error) {
	match := shortcodePattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", ErrInvalidURL
	}
	return match[1], nil
}
