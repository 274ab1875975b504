package post

import "fmt"

// ErrorKind names the failure class of a pipeline stage.
type ErrorKind string

const (
	KindInvalidURL           ErrorKind = "InvalidURL"
	KindPostNotFound         ErrorKind = "PostNotFound"
	KindPrivatePost          ErrorKind = "PrivatePost"
	KindUpstreamUnavailable  ErrorKind = "UpstreamUnavailable"
	KindMediaDownloadFailed  ErrorKind = "MediaDownloadFailed"
	KindStorageUnavailable   ErrorKind = "StorageUnavailable"
	KindStorageQuotaExceeded ErrorKind = "StorageQuotaExceeded"
)

// FetchError is the failure result of the fetch pipeline. It carries the
// kind the handler maps to an HTTP status and a user-facing message, plus
// the underlying cause for operator logs. The cause never reaches the
// response body.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Message returns the stable human-readable description for the failure.
func (e *FetchError) Message() string {
	switch e.Kind {
	case KindInvalidURL:
		return "URL is invalid"
	case KindPostNotFound:
		return "post could not be found"
	case KindPrivatePost:
		return "post is private and cannot be accessed"
	case KindUpstreamUnavailable:
		return "could not reach the content provider"
	case KindMediaDownloadFailed:
		return "could not download the post media"
	case KindStorageUnavailable:
		return "could not store the post media"
	case KindStorageQuotaExceeded:
		return "storage capacity exceeded"
	default:
		return "internal server error"
	}
}
