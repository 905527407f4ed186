package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// Client is an HTTP client for the bedtime API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
}

// NewClient creates a new API client. Idempotent requests are retried on
// connection errors and 5xx responses.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		attempts: 3,
	}
}

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// Get performs a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	body, _, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return decode(body, result)
}

// Post performs a POST request with JSON body and decodes the response.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, result)
}

// Patch performs a PATCH request with JSON body and decodes the response.
func (c *Client) Patch(ctx context.Context, path string, body any, result any) error {
	return c.sendJSON(ctx, http.MethodPatch, path, body, result)
}

// Put performs a PUT request with JSON body and decodes the response.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	return c.sendJSON(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, _, err := c.do(ctx, http.MethodDelete, path, "", nil)
	return err
}

// Download performs a GET and returns the raw body with its content type.
func (c *Client) Download(ctx context.Context, path string) ([]byte, string, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// Upload POSTs raw bytes with the given content type and decodes the
// JSON response.
func (c *Client) Upload(ctx context.Context, path, contentType string, data []byte, result any) error {
	body, _, err := c.do(ctx, http.MethodPost, path, contentType, data)
	if err != nil {
		return err
	}
	return decode(body, result)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
	}
	resp, _, err := c.do(ctx, method, path, "application/json", payload)
	if err != nil {
		return err
	}
	return decode(resp, result)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, string, error) {
	attempts := uint(1)
	if method == http.MethodGet || method == http.MethodPut || method == http.MethodDelete {
		attempts = c.attempts
	}

	var body []byte
	var respType string
	err := retry.Do(
		func() error {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if resp.StatusCode >= 400 {
				serr := &StatusError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
				var errResp ErrorResponse
				if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
					serr.Message = errResp.Error
				}
				if resp.StatusCode < 500 {
					return retry.Unrecoverable(serr)
				}
				return serr
			}
			body = data
			respType = resp.Header.Get("Content-Type")
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, "", err
	}
	return body, respType, nil
}

func decode(body []byte, result any) error {
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Code == code
}

// ErrorResponse matches the server's error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}
