package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/middleware"
	"github.com/eadens/cakeworld/pkg/reqid"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := logger.L
	t.Cleanup(func() {
		logger.L = old
		slog.SetDefault(old)
	})
	var buf bytes.Buffer
	logger.SetOutput(&buf, "development")
	return &buf
}

func TestLoggerTagsRequestAndLevel(t *testing.T) {
	buf := captureLogs(t)

	h := reqid.Middleware()(middleware.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.WithCtx(r.Context()).Info("looking up order")
		http.NotFound(w, r)
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/orders/nope", nil)
	req.Header.Set(reqid.Header, "trace-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `msg="looking up order" request_id=trace-7`)
	assert.Contains(t, out, "level=WARN msg=request request_id=trace-7")
	assert.Contains(t, out, "status=404")
}

func TestRateLimitSendsRetryAfter(t *testing.T) {
	h := middleware.RateLimit(1, time.Minute)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), `"code":"rate_limited"`)
}

func TestLimiterIsPerClient(t *testing.T) {
	l := middleware.NewLimiter(1, time.Minute)
	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok)
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
}

func TestCORSPreflightForNamedOrigin(t *testing.T) {
	h := middleware.CORS(middleware.CORSFromList("https://shop.example.com/, https://admin.example.com"))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }))

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardByDefault(t *testing.T) {
	h := middleware.CORS(middleware.CORSFromList(""))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
