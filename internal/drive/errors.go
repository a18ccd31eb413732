// Package drive implements the Google Drive v3 client: authorized list,
// metadata, search, export, download, and viewer-URL operations, with
// response normalization into FileRecord. Failures are surfaced once to the
// caller as typed errors — there is no retry, backoff, or de-duplication of
// superseded requests.
package drive

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification.
// Use errors.Is(err, drive.ErrRemoteRequest) to check.
var (
	// ErrNotAuthenticated means no usable token was obtainable at call time.
	// No HTTP request is made in that case.
	ErrNotAuthenticated = errors.New("drive: not authenticated")

	// ErrRemoteRequest marks a non-2xx response from the files API.
	ErrRemoteRequest = errors.New("drive: remote request failed")

	// ErrExport marks a failed export of a provider-native document.
	ErrExport = errors.New("drive: export failed")

	// ErrDownload marks a failed content download.
	ErrDownload = errors.New("drive: download failed")

	// ErrViewerURLDisabled is returned when building a viewer URL would embed
	// the bearer token in the URL and that capability is switched off.
	ErrViewerURLDisabled = errors.New("drive: token-bearing viewer URLs disabled")
)

// RequestError wraps a sentinel error with the upstream HTTP status code
// and response body for diagnosis.
type RequestError struct {
	StatusCode int
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("drive: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
