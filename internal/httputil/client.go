// Package httputil holds the shared HTTP plumbing for outbound calls. Its
// only steady consumer is the vision client, which posts screenshots to a
// model endpoint and reads possibly compressed JSON back.
package httputil

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
)

// NewHTTPClient creates the client used for vision-endpoint calls. Pass nil
// for the default pooled transport.
func NewHTTPClient(transport http.RoundTripper) *http.Client {
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

// retryableStatus reports whether a response status is worth retrying.
// Model endpoints answer 429 when a burst outruns the account quota even
// though the caller rate-limits locally.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// DoWithRetry performs req with up to maxRetries retries on transport errors
// and retryable statuses. The request body is reset through req.GetBody before
// each retry, so requests built with a rewindable body retry safely. Backoff
// between attempts honors the request context: a cancelled patrol run stops
// waiting immediately.
func DoWithRetry(client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("reset request body for retry: %w", err)
				}
				req.Body = body
			}
			backoff := time.Duration(i) * 500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if retryableStatus(resp.StatusCode) {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// ReadBody reads a response body, transparently decoding the gzip and brotli
// encodings model endpoints answer with.
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		var err error
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer reader.Close()
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	default:
		reader = resp.Body
	}
	return io.ReadAll(reader)
}
