package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ramp_metrics/internal/feature/volumes/domain/entity"
)

// ErrUpstream はモックと期待値の間で共有されるセンチネルエラーです。
var ErrUpstream = errors.New("rpc unavailable")

// mockVolumeSource はVolumeSourceインターフェースのモック実装です。
type mockVolumeSource struct {
	mu           sync.Mutex
	DailyFunc    func(ctx context.Context, start, end time.Time) ([]entity.RawDailyRow, error)
	MonthlyFunc  func(ctx context.Context, year int) ([]entity.RawMonthlyRow, error)
	dailyCalls   int
	monthlyCalls int
}

func (m *mockVolumeSource) FetchDailyRows(ctx context.Context, start, end time.Time) ([]entity.RawDailyRow, error) {
	m.mu.Lock()
	m.dailyCalls++
	m.mu.Unlock()
	if m.DailyFunc != nil {
		return m.DailyFunc(ctx, start, end)
	}
	return nil, errors.New("DailyFunc is not implemented")
}

func (m *mockVolumeSource) FetchMonthlyRows(ctx context.Context, year int) ([]entity.RawMonthlyRow, error) {
	m.mu.Lock()
	m.monthlyCalls++
	m.mu.Unlock()
	if m.MonthlyFunc != nil {
		return m.MonthlyFunc(ctx, year)
	}
	return nil, errors.New("MonthlyFunc is not implemented")
}

func (m *mockVolumeSource) DailyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyCalls
}

func (m *mockVolumeSource) MonthlyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monthlyCalls
}

type fakeEntry[T any] struct {
	v         T
	expiresAt time.Time
}

// fakeCache はテスト用の時計で期限切れを判定するキャッシュです。
type fakeCache[T any] struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]fakeEntry[T]
	sets  int
}

func newFakeCache[T any](now func() time.Time) *fakeCache[T] {
	return &fakeCache[T]{now: now, items: map[string]fakeEntry[T]{}}
}

func (c *fakeCache[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.v, true
}

func (c *fakeCache[T]) Set(_ context.Context, key string, v T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = fakeEntry[T]{v: v, expiresAt: c.now().Add(ttl)}
}

func (c *fakeCache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// testClock は手動で進める時計です。
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// mockFlusher はFlusherのモック実装です。
type mockFlusher struct {
	calls int
	err   error
}

func (m *mockFlusher) Flush(context.Context) error {
	m.calls++
	return m.err
}

func day(s string) time.Time {
	d, err := entity.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustRange(t *testing.T, start, end string) entity.DateRange {
	t.Helper()
	r, err := entity.NewDateRange(day(start), day(end))
	if err != nil {
		t.Fatalf("invalid range %s..%s: %v", start, end, err)
	}
	return r
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	w := decimal.RequireFromString(want)
	if !w.Equal(got) {
		t.Errorf("decimal mismatch: got %s, want %s %v", got, want, msgAndArgs)
	}
}
