package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NetHTTPCaller is the production HTTPCaller backed by net/http.
type NetHTTPCaller struct {
	client *http.Client
}

// NewNetHTTPCaller creates an HTTPCaller with the given per-request timeout.
func NewNetHTTPCaller(timeout time.Duration) *NetHTTPCaller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NetHTTPCaller{client: &http.Client{Timeout: timeout}}
}

// Do issues the request and reads the full response body. Non-2xx statuses
// are returned as regular responses, not errors; the caller decides what a
// failure means.
func (c *NetHTTPCaller) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*HTTPResponse, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k, vals := range resp.Header {
		respHeaders[k] = strings.Join(vals, ", ")
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    respHeaders,
		Body:       raw,
	}, nil
}
