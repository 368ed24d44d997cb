// Package client submits TCK evaluation requests to a DMN service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single evaluation request.
const DefaultTimeout = 60 * time.Second

// Client evaluates invocables against a DMN service endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New creates a client for the given evaluate endpoint URL. A zero
// timeout falls back to DefaultTimeout.
func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// ServiceError is a failure reported by the evaluation service itself,
// as opposed to a transport or decoding failure.
type ServiceError struct {
	Details string
}

func (e *ServiceError) Error() string {
	return e.Details
}

// Evaluate submits the invocable with its inputs and returns the value
// the service computed. A nil value with nil error means the service
// responded without a result value.
func (c *Client) Evaluate(ctx context.Context, invocable string, inputs []InputDTO) (*ValueDTO, error) {
	body, err := json.Marshal(evaluateRequest{Invocable: invocable, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evaluate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope resultEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if envelope.Data != nil {
		return envelope.Data.Value, nil
	}
	if len(envelope.Errors) > 0 {
		return nil, &ServiceError{Details: envelope.errorDetails()}
	}
	return nil, fmt.Errorf("empty result envelope (status %d)", resp.StatusCode)
}
