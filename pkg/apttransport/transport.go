package apttransport

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"
)

// ErrNotFound is wrapped by an AcquireError when the resource does not exist
var ErrNotFound = errors.New("not found")

// Transport represents an APT transport method (http, https, file, etc.)
type Transport interface {
	// Schemes returns the URI schemes this transport handles (e.g., "http", "https")
	Schemes() []string

	// Acquire fetches a resource from the given URI
	Acquire(ctx context.Context, req *AcquireRequest) (*AcquireResponse, error)
}

// AcquireRequest represents a request to fetch a resource
type AcquireRequest struct {
	// URI is the resource to fetch
	URI *url.URL

	// Headers for additional request headers
	Headers map[string]string

	// Timeout for the request
	Timeout time.Duration
}

// NewRequest parses rawURL into an AcquireRequest
func NewRequest(rawURL string) (*AcquireRequest, error) {
	uri, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &AcquireRequest{URI: uri}, nil
}

// AcquireResponse represents the result of an acquire operation.
// The caller must close Content.
type AcquireResponse struct {
	// URI that was actually fetched (may differ due to redirects)
	URI *url.URL

	Content io.ReadCloser

	// Size of the content, 0 when unknown
	Size int64

	// LastModified timestamp from the server or the file system
	LastModified *time.Time
}

// AcquireError is a recoverable fetch failure: the resource could not be
// retrieved but nothing about the failure invalidates other resources.
type AcquireError struct {
	URI    *url.URL
	Reason string
	Err    error
}

func (e *AcquireError) Error() string {
	msg := "failed to acquire " + e.URI.String() + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return "unsupported scheme: " + e.Scheme
}

// IsNotFound reports whether err means the resource does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFetchError reports whether err stems from acquiring a resource rather
// than from interpreting its content
func IsFetchError(err error) bool {
	var acqErr *AcquireError
	var schemeErr *UnsupportedSchemeError
	return errors.As(err, &acqErr) || errors.As(err, &schemeErr)
}
