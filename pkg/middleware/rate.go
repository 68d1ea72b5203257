// Package middleware holds the API server's HTTP middleware.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/response"
)

// Limiter counts requests per client IP in fixed windows.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewLimiter(max int, per time.Duration) *Limiter {
	return &Limiter{max: max, window: per, now: time.Now, windows: map[string]*window{}}
}

// Allow records one request from ip. When the window is full it returns
// false and how long until it resets.
func (l *Limiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextSweep) {
		for k, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.window)
	}

	w, ok := l.windows[ip]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.window)}
		l.windows[ip] = w
	}
	w.count++
	if w.count > l.max {
		return false, w.resetAt.Sub(now)
	}
	return true, 0
}

// Handler rejects over-limit clients with 429 and a Retry-After header.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Allow(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second).Seconds())))
			response.Write(w, http.StatusTooManyRequests, response.Envelope{
				Status:  http.StatusTooManyRequests,
				Code:    apperr.CodeRateLimited,
				Message: "Too many requests, please slow down.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits each client IP to max requests per window.
func RateLimit(max int, per time.Duration) func(http.Handler) http.Handler {
	return NewLimiter(max, per).Handler
}

// clientIP prefers the first X-Forwarded-For hop, then RemoteAddr without
// its port.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
