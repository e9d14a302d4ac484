package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// HTTPEmailSender is an HTTP implementation of the EmailSender interface,
// posting messages to a mail provider's REST endpoint.
type HTTPEmailSender struct {
	url  string
	from string
}

// NewHTTPEmailSender creates a new HTTPEmailSender.
func NewHTTPEmailSender(url, from string) *HTTPEmailSender {
	return &HTTPEmailSender{url: url, from: from}
}

// Send delivers a rendered message and returns the provider receipt.
func (c *HTTPEmailSender) Send(ctx context.Context, to, subject, body string) (*EmailReceipt, error) {
	requestBody, err := json.Marshal(map[string]string{
		"from":    c.from,
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/messages", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("email send failed: status code %d", resp.StatusCode)
	}

	var receipt EmailReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &receipt, nil
}
