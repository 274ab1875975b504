package post

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// buildStorageKey produces the object name for one uploaded payload:
// {shortcode}_{32 hex chars}.{ext}. The random component makes the key
// unique per upload, so concurrent fetches of the same shortcode never
// collide. It is not a content hash: repeated fetches of the same post
// store distinct objects.
func buildStorageKey(shortcode string, isVideo bool) string {
	ext := "jpg"
	if isVideo {
		ext = "mp4"
	}

	nonce := uuid.New()
	return fmt.Sprintf("%s_%s.%s", shortcode, hex.EncodeToString(nonce[:]), ext)
}
