package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipscout/internal/retry"
)

func newTestClient() *Client {
	return New(&Config{
		Timeout: 5 * time.Second,
		Retry: retry.Config{
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     10 * time.Millisecond,
			Multiplier:     2.0,
		},
		RateLimiter: RateLimiterConfig{DefaultRPS: 1000, Burst: 100},
	})
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, "hello")
	}))
	defer server.Close()

	resp, err := newTestClient().Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(resp.Body))
}

func TestGetRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	resp, err := newTestClient().Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(resp.Body))
	assert.Equal(t, 3, attempts)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "nope")
	}))
	defer server.Close()

	_, err := newTestClient().Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "nope", string(httpErr.Body))
}

func TestGetRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient().Get(context.Background(), server.URL)
	require.Error(t, err)

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, http.StatusTooManyRequests, rateErr.StatusCode)
	assert.Equal(t, time.Second, rateErr.RetryAfter)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"clipscout","count":3}`)
	}))
	defer server.Close()

	var payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, newTestClient().GetJSON(context.Background(), server.URL, &payload))
	assert.Equal(t, "clipscout", payload.Name)
	assert.Equal(t, 3, payload.Count)
}

func TestGetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()

	var payload map[string]any
	assert.Error(t, newTestClient().GetJSON(context.Background(), server.URL, &payload))
}

func TestDoCustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := newTestClient().Do(context.Background(), http.MethodGet, server.URL, map[string]string{
		"Accept": "application/json",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &RateLimitError{StatusCode: 429}, true},
		{"server error", &HTTPError{StatusCode: 502}, true},
		{"client error", &HTTPError{StatusCode: 404}, false},
		{"network failure", fmt.Errorf("%w: connection refused", ErrRequestFailed), true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	header := http.Header{}
	assert.Equal(t, time.Duration(0), parseRetryAfter(header))

	header.Set("Retry-After", "30")
	assert.Equal(t, 30*time.Second, parseRetryAfter(header))

	header.Set("Retry-After", "garbage")
	assert.Equal(t, time.Duration(0), parseRetryAfter(header))
}
