package rampapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLimiter struct {
	calls int
	err   error
}

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.calls++
	return c.err
}

func newServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewRampAPI(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "test-key", BaseURL: "https://ramp.test", Timeout: 10 * time.Second}
	api := NewRampAPI(cfg, &http.Client{}, nil)

	require.NotNil(t, api)
	assert.Equal(t, "test-key", api.cfg.APIKey)
}

func TestRampAPI_FetchDailyRows_Success(t *testing.T) {
	t.Parallel()

	server := newServer(t, http.StatusOK, `{
		"status": "ok",
		"rows": [
			{"day": "2025-10-03", "chain": "base", "buy_usd": 40, "sell_usd": "10", "total_usd": 50.25},
			{"day": "2025-10-05", "chain": "polygon", "buy_usd": "30"}
		]
	}`, func(r *http.Request) {
		assert.Equal(t, "/daily", r.URL.Path)
		assert.Equal(t, "2025-10-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2025-10-05", r.URL.Query().Get("end"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
	})

	limiter := &countingLimiter{}
	api := NewRampAPI(Config{APIKey: "test-key", BaseURL: server.URL}, server.Client(), limiter)

	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	rows, err := api.FetchDailyRows(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025-10-03", rows[0].Day)
	assert.Equal(t, "base", rows[0].Chain)
	assert.Equal(t, "40", rows[0].Buy)
	assert.Equal(t, "10", rows[0].Sell)
	assert.Equal(t, "50.25", rows[0].Total)

	assert.Equal(t, "30", rows[1].Buy)
	assert.Equal(t, "", rows[1].Total, "missing amounts stay empty")
	assert.Equal(t, 1, limiter.calls)
}

func TestRampAPI_FetchMonthlyRows_Success(t *testing.T) {
	t.Parallel()

	server := newServer(t, http.StatusOK, `{
		"status": "ok",
		"rows": [{"month": "2025-09", "buy_usd": "100", "sell_usd": "20", "total_usd": "120"}]
	}`, func(r *http.Request) {
		assert.Equal(t, "/monthly", r.URL.Path)
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		assert.Empty(t, r.Header.Get("X-API-Key"))
	})

	api := NewRampAPI(Config{BaseURL: server.URL}, server.Client(), nil)

	rows, err := api.FetchMonthlyRows(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-09", rows[0].Month)
	assert.Equal(t, "120", rows[0].Total)
}

func TestRampAPI_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"bad request", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized},
		{"not found", http.StatusNotFound},
		{"internal server error", http.StatusInternalServerError},
		{"service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newServer(t, tt.statusCode, "", nil)
			api := NewRampAPI(Config{BaseURL: server.URL}, server.Client(), nil)

			_, err := api.FetchMonthlyRows(context.Background(), 2025)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rampapi http")
		})
	}
}

func TestRampAPI_APIError(t *testing.T) {
	t.Parallel()

	server := newServer(t, http.StatusOK, `{"status": "error", "message": "Invalid API key"}`, nil)
	api := NewRampAPI(Config{BaseURL: server.URL}, server.Client(), nil)

	_, err := api.FetchDailyRows(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestRampAPI_InvalidBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{invalid json`},
		{"non numeric amount", `{"status":"ok","rows":[{"day":"2025-10-01","buy_usd":"abc"}]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newServer(t, http.StatusOK, tt.body, nil)
			api := NewRampAPI(Config{BaseURL: server.URL}, server.Client(), nil)

			_, err := api.FetchDailyRows(context.Background(), time.Now(), time.Now())
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "rampapi decode /daily"), "got %v", err)
		})
	}
}

func TestRampAPI_LimiterErrorSkipsRequest(t *testing.T) {
	t.Parallel()

	hit := false
	server := newServer(t, http.StatusOK, `{"status":"ok","rows":[]}`, func(r *http.Request) { hit = true })
	api := NewRampAPI(Config{BaseURL: server.URL}, server.Client(), &countingLimiter{err: context.Canceled})

	_, err := api.FetchMonthlyRows(context.Background(), 2025)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, hit)
}

func TestRampAPI_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	api := NewRampAPI(Config{BaseURL: server.URL}, server.Client(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := api.FetchMonthlyRows(ctx, 2025)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://ramp.test")
	t.Setenv("UPSTREAM_API_KEY", "secret")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("UPSTREAM_RATE_PER_SECOND", "4")

	cfg := LoadConfig()

	assert.Equal(t, "https://ramp.test", cfg.BaseURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.RatePerSecond)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "bogus")
	t.Setenv("UPSTREAM_RATE_PER_SECOND", "-1")

	cfg := LoadConfig()

	assert.Zero(t, cfg.Timeout, "invalid timeout is reported as unset")
	assert.Equal(t, 0, cfg.RatePerSecond)
}
