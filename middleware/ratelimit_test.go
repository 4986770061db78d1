package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"patisserie-backend/store"

	"github.com/gin-gonic/gin"
)

func setupLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	cache := store.NewMemoryStore(time.Minute)
	defer cache.Close()
	router := setupLimitedRouter(NewRateLimiter(3, time.Minute, cache))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 past the burst, got %d", w.Code)
	}
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	cache := store.NewMemoryStore(time.Minute)
	defer cache.Close()
	// 10 tokens per second.
	router := setupLimitedRouter(NewRateLimiter(1, 100*time.Millisecond, cache))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("immediate second request: expected 429, got %d", w.Code)
	}

	time.Sleep(150 * time.Millisecond)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("after refill: expected 200, got %d", w.Code)
	}
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	cache := store.NewMemoryStore(time.Minute)
	defer cache.Close()
	router := setupLimitedRouter(NewRateLimiter(1, time.Minute, cache))

	reqA := httptest.NewRequest("GET", "/ping", nil)
	reqA.Header.Set("X-Forwarded-For", "10.0.0.1")
	reqB := httptest.NewRequest("GET", "/ping", nil)
	reqB.Header.Set("X-Forwarded-For", "10.0.0.2")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, reqA)
	if w.Code != http.StatusOK {
		t.Fatalf("client A: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, reqB)
	if w.Code != http.StatusOK {
		t.Errorf("client B must have its own bucket, got %d", w.Code)
	}
}
