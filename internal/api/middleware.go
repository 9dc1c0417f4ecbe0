package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// extractBearerToken returns the token of a "Bearer <token>" Authorization
// header, or "" when the header is missing or uses another scheme.
func extractBearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// tokenMatches compares in constant time for equal-length inputs.
func tokenMatches(token, apiKey string) bool {
	return len(token) == len(apiKey) &&
		subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1
}

// AuthMiddleware guards the per-user routes with the shared API key. Neither
// the key nor the presented token is ever logged or echoed.
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" || !tokenMatches(token, apiKey) {
				slog.Warn("auth failure",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetRequestID returns the chi request ID, or "" outside a RequestID chain.
func GetRequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// logLevelForStatus picks Info for success, Warn for client errors and
// Error for server errors.
func logLevelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		slog.Log(r.Context(), logLevelForStatus(wrapped.statusCode), "request completed",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecoveryMiddleware catches panics and returns 500 Problem Details.
// Panic details are logged but never exposed to the client.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered",
					"error", recovered,
					"stack", string(debug.Stack()),
					"path", r.URL.Path,
					"method", r.Method,
				)
				WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimiter is a token bucket shared by every request through its
// middleware. It guards endpoints that call out to paid upstreams.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   int
	capacity int
	refill   time.Duration
	last     time.Time
	now      func() time.Time
}

// NewRateLimiter allows bursts of capacity requests, then one per refill.
func NewRateLimiter(capacity int, refill time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   capacity,
		capacity: capacity,
		refill:   refill,
		last:     time.Now(),
		now:      time.Now,
	}
}

// Allow takes one token if available.
func (l *RateLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.refill > 0 {
		if n := int(now.Sub(l.last) / l.refill); n > 0 {
			l.tokens = min(l.capacity, l.tokens+n)
			l.last = l.last.Add(time.Duration(n) * l.refill)
		}
	}
	if l.tokens == 0 {
		return false
	}
	l.tokens--
	return true
}

func (l *RateLimiter) retryAfterSeconds() int {
	return max(1, int(math.Ceil(l.refill.Seconds())))
}

// Middleware rejects requests with 429 once the bucket is empty.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			WriteProblem(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
