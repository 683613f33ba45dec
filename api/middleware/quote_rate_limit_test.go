package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

type countingRecorder struct{ n int }

func (c *countingRecorder) IncRateLimited() { c.n++ }

func quoteRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/quotes", strings.NewReader(`{}`))
	req.RemoteAddr = ip + ":5678"
	return req
}

func TestQuoteRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	recorder := &countingRecorder{}
	handler := QuoteRateLimit(time.Minute, 2, limiter, recorder, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, quoteRequest("10.0.0.1"))
		if i < 2 {
			assert.Equal(t, http.StatusCreated, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Equal(t, string(pkgerrors.CodeRateLimit), errorCode(t, rec))
	}
	assert.Equal(t, 1, recorder.n)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, quoteRequest("10.0.0.2"))
	assert.Equal(t, http.StatusCreated, rec.Code, "other clients keep their own window")
}

func TestQuoteRateLimitBehindRealIP(t *testing.T) {
	limiter := &fakeLimiter{}
	limited := QuoteRateLimit(time.Minute, 5, limiter, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler := chimw.RealIP(limited)

	req := quoteRequest("10.0.0.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(1), limiter.counts["quote:ip:203.0.113.9"])
}

func TestQuoteRateLimitStoreFailure(t *testing.T) {
	handler := QuoteRateLimit(time.Minute, 5, &fakeLimiter{err: errors.New("redis down")}, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, quoteRequest("10.0.0.1"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQuoteRateLimitDisabled(t *testing.T) {
	called := false
	handler := QuoteRateLimit(0, 5, &fakeLimiter{}, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), quoteRequest("10.0.0.1"))
	assert.True(t, called)
}
