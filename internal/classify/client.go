// Package classify talks to the hosted text models: a sentiment classifier,
// a summarizer and a named-entity extractor. Responses follow the
// HuggingFace inference API shapes.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyResponse = errors.New("empty model response")

// Client is the shared HTTP transport for model endpoints.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	Stats      *Stats
}

// NewClient returns a client for an inference endpoint rooted at baseURL.
// Models are addressed as baseURL + "/models/" + name.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		Stats: NewStats(time.Hour),
	}
}

type inferenceRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// infer posts text to model and returns the raw response body.
func (c *Client) infer(ctx context.Context, model, text string, params map[string]any) ([]byte, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: text, Parameters: params})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.Stats.Record(model, time.Since(start).Milliseconds(), true)
		return nil, fmt.Errorf("model %s: %w", model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	c.Stats.Record(model, time.Since(start).Milliseconds(), err != nil || resp.StatusCode != http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// 503 is also what the inference API answers while a model is loading.
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model %s status %d: %s", model, resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
