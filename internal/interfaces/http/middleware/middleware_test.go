package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"short-story-api/pkg/logger"
	"short-story-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen any
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		seen = c.Request.Context().Value(logger.RequestIDKey)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, seen)
}

func TestRequestID_KeepsCallerID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS(CORSConfig{AllowedOrigins: []string{"*"}}))
	r.POST("/story", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/story", nil)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	r := gin.New()
	r.Use(CORS(CORSConfig{AllowedOrigins: []string{"http://allowed.test"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://allowed.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://allowed.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://denied.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type fakeLimiter struct {
	allow  bool
	err    error
	keys   []string
	limit  int
	window time.Duration
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	f.limit = limit
	f.window = window
	return f.allow, f.err
}

func serveLimited(cfg RateLimitConfig, limiter RateLimiter) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/story", RateLimit(cfg, limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"story": "ok"})
	})

	req := httptest.NewRequest(http.MethodPost, "/story", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	w := serveLimited(RateLimitConfig{Enabled: false}, limiter)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, limiter.keys)
}

func TestRateLimit_Allowed(t *testing.T) {
	limiter := &fakeLimiter{allow: true}
	w := serveLimited(RateLimitConfig{
		Enabled:           true,
		RequestsPerWindow: 5,
		Window:            30 * time.Second,
		KeyPrefix:         "ratelimit:story",
	}, limiter)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, limiter.keys, 1)
	assert.Equal(t, "ratelimit:story:10.1.2.3:/story", limiter.keys[0])
	assert.Equal(t, 5, limiter.limit)
	assert.Equal(t, 30*time.Second, limiter.window)
}

func TestRateLimit_Rejected(t *testing.T) {
	counter := metrics.RateLimitRejected.WithLabelValues("/story")
	before := testutil.ToFloat64(counter)

	w := serveLimited(RateLimitConfig{Enabled: true}, &fakeLimiter{allow: false})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRateLimit_FailOpen(t *testing.T) {
	w := serveLimited(RateLimitConfig{Enabled: true}, &fakeLimiter{err: errors.New("redis down")})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics_SkipsConfiguredPaths(t *testing.T) {
	r := gin.New()
	r.Use(Metrics("/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "m") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	skipped := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")
	counted := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	beforeSkipped := testutil.ToFloat64(skipped)
	beforeCounted := testutil.ToFloat64(counted)

	for _, p := range []string{"/metrics", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, beforeSkipped, testutil.ToFloat64(skipped))
	assert.Equal(t, beforeCounted+1, testutil.ToFloat64(counted))
}
