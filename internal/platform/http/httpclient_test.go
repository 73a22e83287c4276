package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(maxRetries int) *http.Client {
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: &retryTransport{next: http.DefaultTransport, maxRetries: maxRetries, baseDelay: time.Millisecond},
	}
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(3 * time.Second)

	assert.Equal(t, 3*time.Second, c.Timeout)
	rt, ok := c.Transport.(*retryTransport)
	require.True(t, ok)
	assert.Equal(t, defaultMaxRetries, rt.maxRetries)
}

func TestRetryTransport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		method       string
		statuses     []int
		wantStatus   int
		wantAttempts int32
	}{
		{"success needs no retry", http.MethodGet, []int{200}, 200, 1},
		{"retries 503 then succeeds", http.MethodGet, []int{503, 200}, 200, 2},
		{"retries 429 and 502", http.MethodGet, []int{429, 502, 200}, 200, 3},
		{"gives up after max retries", http.MethodGet, []int{504, 504, 504, 200}, 504, 3},
		{"client errors are not retried", http.MethodGet, []int{404, 200}, 404, 1},
		{"non idempotent methods are not retried", http.MethodPost, []int{503, 200}, 503, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := attempts.Add(1)
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer server.Close()

			req, err := http.NewRequest(tt.method, server.URL, nil)
			require.NoError(t, err)
			res, err := newTestClient(2).Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestRetryTransport_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := &http.Client{Transport: &retryTransport{next: http.DefaultTransport, maxRetries: 5, baseDelay: time.Second}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Do(req)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
