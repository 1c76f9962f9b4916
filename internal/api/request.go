package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// doRequest performs a single HTTP request and returns the body and its
// Content-Type. The api_key parameter is attached to every request.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}

	merged := url.Values{}
	for k, vs := range query {
		merged[k] = vs
	}
	if c.apiKey != "" {
		merged.Set("api_key", c.apiKey)
	}

	fullURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(merged) > 0 {
		fullURL += "?" + merged.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// doWithRetry performs a request with exponential backoff retry. Only
// HTTP-level failures marked retryable (5xx, 429) are retried; the
// pagination layer above never retries on its own.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values) ([]byte, string, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, contentType, err := c.doRequest(ctx, method, path, query)
		if err == nil {
			return body, contentType, nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return nil, "", err
		}
	}

	return nil, "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// getPage performs a GET request and decodes the body once at the boundary:
// text/csv responses come back as text, everything else must be valid JSON.
func (c *Client) getPage(ctx context.Context, path string, query url.Values) (*Payload, error) {
	body, contentType, err := c.doWithRetry(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/csv" {
		return &Payload{Text: string(body), IsText: true}, nil
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s returned invalid JSON", ErrDecode, path)
	}

	return &Payload{JSON: json.RawMessage(body)}, nil
}

// getJSON performs a GET request and unmarshals a JSON response into result.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	p, err := c.getPage(ctx, path, query)
	if err != nil {
		return err
	}

	if p.IsText {
		return fmt.Errorf("%w: %s returned text, expected JSON", ErrDecode, path)
	}

	if err := json.Unmarshal(p.JSON, result); err != nil {
		return fmt.Errorf("%w: unmarshal %s response: %v", ErrDecode, path, err)
	}

	return nil
}
