package apttransport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

var _ Transport = &HTTPTransport{}

// DefaultUserAgent is sent with every HTTP request
const DefaultUserAgent = "bigmess/1.0"

type HTTPTransport struct {
	userAgent string
	timeout   time.Duration
	client    *http.Client
}

func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		userAgent: DefaultUserAgent,
		timeout:   time.Second * 60,
		client:    &http.Client{},
	}
}

func (t *HTTPTransport) Schemes() []string {
	return []string{"http", "https"}
}

func (t *HTTPTransport) Acquire(ctx context.Context, req *AcquireRequest) (*AcquireResponse, error) {
	timeout := t.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URI.String(), nil)
	if err != nil {
		cancel()
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "failed to create request",
			Err:    err,
		}
	}

	httpReq.Header.Set("User-Agent", t.userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "request failed",
			Err:    err,
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		cancel()
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Err:    ErrNotFound,
		}
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		cancel()
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	response := &AcquireResponse{
		URI:          resp.Request.URL, // May have changed due to redirects
		Content:      &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		LastModified: parseLastModified(resp.Header.Get("Last-Modified")),
	}
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
			response.Size = size
		}
	}

	return response, nil
}

// cancelOnClose keeps the request context alive until the body is consumed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func parseLastModified(value string) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(http.TimeFormat, value); err == nil {
		return &t
	}
	return nil
}
