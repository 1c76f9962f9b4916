package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com", "test-key")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "test-key")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.retryBackoff != time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, time.Second)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
		if c.metaCache == nil {
			t.Error("metaCache should not be nil")
		}
		if c.limiter != nil {
			t.Error("limiter should be nil without WithRateLimit")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})

	t.Run("with logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", "", WithLogger(logger))
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", "", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})

	t.Run("with rate limit", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithRateLimit(2, 5))
		if c.limiter == nil {
			t.Fatal("limiter should be set")
		}
		if c.limiter.Burst() != 5 {
			t.Errorf("Burst = %d, want 5", c.limiter.Burst())
		}
	})

	t.Run("zero rate limit disables throttling", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithRateLimit(0, 5))
		if c.limiter != nil {
			t.Error("limiter should be nil for zero rps")
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := &APIError{
			StatusCode: 404,
			Message:    "Not Found",
			Body:       []byte(`{"error": "metric not found"}`),
		}
		expected := "glassnode api error 404: Not Found"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{500, true},
			{502, true},
			{503, true},
			{504, true},
			{429, true},
			{400, false},
			{401, false},
			{403, false},
			{404, false},
			{200, false},
			{499, false},
		}

		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
			}
		}
	})
}

// TestDoRequest tests the HTTP request layer.
func TestDoRequest(t *testing.T) {
	t.Run("attaches api_key query parameter", func(t *testing.T) {
		var gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.URL.Query().Get("api_key")
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "secret-key")
		if _, _, err := c.doRequest(context.Background(), http.MethodGet, "/metadata/assets", nil); err != nil {
			t.Fatalf("doRequest failed: %v", err)
		}
		if gotKey != "secret-key" {
			t.Errorf("api_key = %q, want %q", gotKey, "secret-key")
		}
	})

	t.Run("no api_key parameter when key empty", func(t *testing.T) {
		var hasKey bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasKey = r.URL.Query().Has("api_key")
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		if _, _, err := c.doRequest(context.Background(), http.MethodGet, "/metadata/assets", nil); err != nil {
			t.Fatalf("doRequest failed: %v", err)
		}
		if hasKey {
			t.Error("api_key parameter should be absent for empty key")
		}
	})

	t.Run("error status returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid key"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "bad-key")
		_, _, err := c.doRequest(context.Background(), http.MethodGet, "/metadata/assets", nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T: %v", err, err)
		}
		if apiErr.StatusCode != 401 {
			t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
		}
		if string(apiErr.Body) != `{"error": "invalid key"}` {
			t.Errorf("Body = %q", apiErr.Body)
		}
	})
}

// TestDoWithRetry tests the retry behavior of the transport.
func TestDoWithRetry(t *testing.T) {
	t.Run("retries on 503 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
		body, _, err := c.doWithRetry(context.Background(), http.MethodGet, "/metadata/assets", nil)
		if err != nil {
			t.Fatalf("doWithRetry failed: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %q", body)
		}
		if calls.Load() != 3 {
			t.Errorf("calls = %d, want 3", calls.Load())
		}
	})

	t.Run("does not retry on 400", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
		_, _, err := c.doWithRetry(context.Background(), http.MethodGet, "/metadata/assets", nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})

	t.Run("exhausts retries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(2, time.Millisecond))
		_, _, err := c.doWithRetry(context.Background(), http.MethodGet, "/metadata/assets", nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 3 {
			t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls.Load())
		}
	})
}

// TestGetPage tests boundary decoding by content type.
func TestGetPage(t *testing.T) {
	t.Run("csv content type yields text payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Write([]byte("t,v\n100,1.5\n"))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		p, err := c.getPage(context.Background(), "/metrics/market/price_usd_close", nil)
		if err != nil {
			t.Fatalf("getPage failed: %v", err)
		}
		if !p.IsText {
			t.Error("IsText = false, want true")
		}
		if p.Text != "t,v\n100,1.5\n" {
			t.Errorf("Text = %q", p.Text)
		}
	})

	t.Run("json payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"t":100,"v":1.5}]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		p, err := c.getPage(context.Background(), "/metrics/market/price_usd_close", nil)
		if err != nil {
			t.Fatalf("getPage failed: %v", err)
		}
		if p.IsText {
			t.Error("IsText = true, want false")
		}
		if string(p.JSON) != `[{"t":100,"v":1.5}]` {
			t.Errorf("JSON = %s", p.JSON)
		}
	})

	t.Run("invalid json is ErrDecode", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"t":100,`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		_, err := c.getPage(context.Background(), "/metrics/market/price_usd_close", nil)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("err = %v, want ErrDecode", err)
		}
	})
}
