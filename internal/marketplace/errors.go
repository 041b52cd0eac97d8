package marketplace

import (
	"errors"
	"fmt"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
)

var (
	// ErrRegistryQueryFailed indicates the extensionquery call failed at the
	// transport level or returned a non-2xx status.
	ErrRegistryQueryFailed = errors.New("marketplace query failed")

	// ErrResponseParseFailed indicates the query response body did not decode.
	ErrResponseParseFailed = errors.New("marketplace response could not be parsed")

	// ErrExtensionNotFound indicates the response had no results[0].extensions[0].
	ErrExtensionNotFound = errors.New("extension not found in marketplace response")

	// ErrNoVersionsAvailable indicates the extension has an empty version list.
	ErrNoVersionsAvailable = errors.New("no versions available")

	// ErrNoCompatibleVersion is returned instead of the latest-version fallback
	// when strict engine matching is requested.
	ErrNoCompatibleVersion = errors.New("no version compatible with engine")

	// ErrDownloadFailed indicates the vspackage GET failed.
	ErrDownloadFailed = errors.New("download failed")

	// ErrFilesystem indicates a local write, rename, or directory failure.
	ErrFilesystem = errors.New("filesystem error")
)

// QueryError describes a failed extensionquery call.
// It matches ErrRegistryQueryFailed with errors.Is.
type QueryError struct {
	ID         extension.ID
	StatusCode int
	Err        error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("querying marketplace for %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("querying marketplace for %s: HTTP %d", e.ID, e.StatusCode)
}

func (e *QueryError) Unwrap() []error {
	return joinCause(ErrRegistryQueryFailed, e.Err)
}

// ResponseParseError carries the undecodable body for diagnostics.
// It matches ErrResponseParseFailed with errors.Is.
type ResponseParseError struct {
	ID   extension.ID
	Body []byte
	Err  error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("parsing marketplace response for %s: %v", e.ID, e.Err)
}

func (e *ResponseParseError) Unwrap() []error {
	return joinCause(ErrResponseParseFailed, e.Err)
}

// DownloadError describes a failed vspackage download.
// It matches ErrDownloadFailed with errors.Is.
type DownloadError struct {
	ID         extension.ID
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("downloading %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("downloading %s: HTTP %d from %s", e.ID, e.StatusCode, e.URL)
}

func (e *DownloadError) Unwrap() []error {
	return joinCause(ErrDownloadFailed, e.Err)
}

func joinCause(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}
