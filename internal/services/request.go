package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/ltx/internal/shared"
)

const maxErrorBody = 2048

// RequestError is returned for any non-2xx response from a service API.
type RequestError struct {
	Msg    string
	URL    string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s", e.Msg, e.URL, e.Status, e.Body)
}

// Unwrap makes every [RequestError] match [shared.ErrAPIRequest].
func (e *RequestError) Unwrap() error {
	return shared.ErrAPIRequest
}

// apiClient sends JSON requests to a single API.
//
// Authentication is the job of httpClient, usually an oauth2 client.
type apiClient struct {
	baseURL     string
	httpClient  *http.Client
	contentType string
}

func newAPIClient(baseURL string, httpClient *http.Client) *apiClient {
	return &apiClient{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient, contentType: "application/json"}
}

// do sends body (if any) as JSON and decodes a successful response into result (if any).
//
// endpoint is appended to the base URL unless it is already absolute.
func (c *apiClient) do(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = c.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", c.contentType)
	if body != nil {
		req.Header.Set("Content-Type", c.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{
			Msg:    "request failed",
			URL:    req.URL.String(),
			Status: resp.StatusCode,
			Body:   string(data),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// chunk splits items into consecutive slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	var chunks [][]T
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size])
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}
