package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memoryCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	keys []string
	err  error
}

func (c *memoryCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	if c.hits == nil {
		c.hits = map[string]int64{}
	}
	c.hits[key]++
	c.keys = append(c.keys, key)
	return c.hits[key], nil
}

func TestLimiterFixedWindow(t *testing.T) {
	counter := &memoryCounter{}
	l := NewLimiter(counter, 2, time.Minute)
	now := time.Date(2025, 3, 1, 9, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		d, err := l.Allow(context.Background(), "login:1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := l.Allow(context.Background(), "login:1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, int64(0), d.Remaining)
	require.Equal(t, 50*time.Second, d.RetryAfter)

	now = now.Add(time.Minute)
	d, err = l.Allow(context.Background(), "login:1.2.3.4")
	require.NoError(t, err)
	require.True(t, d.Allowed, "a new window starts a new count")
	require.NotEqual(t, counter.keys[0], counter.keys[len(counter.keys)-1])
}

func TestMiddlewareThrottles(t *testing.T) {
	l := NewLimiter(&memoryCounter{}, 1, time.Minute)
	handler := l.Middleware("login", zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	blocked := call("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	require.NotEmpty(t, blocked.Header().Get("Retry-After"))
	require.JSONEq(t, `{"detail":"request was throttled"}`, blocked.Body.String())

	require.Equal(t, http.StatusOK, call("10.0.0.2").Code, "limits are per client")
}

func TestMiddlewareFailsOpen(t *testing.T) {
	l := NewLimiter(&memoryCounter{err: errors.New("redis unavailable")}, 1, time.Minute)
	handler := l.Middleware("login", zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
