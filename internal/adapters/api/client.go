// Package api is the typed client for the forecast-market REST API. It
// speaks the service's `{success, data, error}` envelope and funnels every
// call through the request gateway.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 1 << 20

type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
	DoOnce(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	gateway doer
}

func NewClient(baseURL string, gateway doer) (*Client, error) {
	if _, err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}
	return &Client{baseURL: baseURL, gateway: gateway}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// StatusError carries the HTTP status alongside the server-reported reason,
// so callers can distinguish authorization failures from everything else.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}

	resp, err := c.gateway.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	resp, err := c.gateway.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

// postJSONOnce bypasses the gateway's 401 repair. Used by the auth
// endpoints, where a 401 means rejected input rather than a stale session.
func (c *Client) postJSONOnce(ctx context.Context, path string, body any, out any) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	resp, err := c.gateway.DoOnce(ctx, req)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, nil, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint, err := buildAPIURL(c.baseURL, path)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", path, err)
	}
	return req, nil
}

func decodeEnvelope(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		reason := ""
		if decodeErr == nil {
			reason = env.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Reason: reason}
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response envelope: %w", decodeErr)
	}
	if !env.Success {
		return &StatusError{StatusCode: resp.StatusCode, Reason: env.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if _, err := validateBaseURL(baseURL); err != nil {
		return "", err
	}
	if path == "" || !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("invalid api path %q", path)
	}

	// Plain join keeps any path prefix carried by the base URL.
	return strings.TrimSuffix(baseURL, "/") + path, nil
}

func validateBaseURL(baseURL string) (*url.URL, error) {
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}
	return parsed, nil
}
