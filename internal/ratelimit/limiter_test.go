package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStore_IncrementWindow(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := store.IncrementWindow(ctx, "k1", time.Minute)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}
}

func TestRedisStore_WindowExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.IncrementWindow(ctx, "k1", time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	count, _, err := store.IncrementWindow(ctx, "k1", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a fresh window, got count %d", count)
	}
}

func TestLimiter_Allow(t *testing.T) {
	store, _ := newTestStore(t)
	l := NewLimiter(store, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "ip1")
		if err != nil || !ok {
			t.Fatalf("call %d: expected allow, got ok=%v err=%v", i, ok, err)
		}
	}
	ok, retryAfter, err := l.Allow(ctx, "ip1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("expected rejection over budget")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}

	// Other keys are unaffected.
	if ok, _, _ := l.Allow(ctx, "ip2"); !ok {
		t.Fatalf("different key must have its own budget")
	}
}

func TestLimiter_DisabledAllowsEverything(t *testing.T) {
	l := NewLimiter(nil, 0)
	if ok, _, err := l.Allow(context.Background(), "ip1"); !ok || err != nil {
		t.Fatalf("disabled limiter must allow, got ok=%v err=%v", ok, err)
	}
}

func TestMiddleware_RejectsWith429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, _ := newTestStore(t)
	l := NewLimiter(store, 1)

	r := gin.New()
	r.POST("/api/auth", Middleware(l), func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", w.Code)
	}
	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second call: expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}
