package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig bounds how many requests a single client IP may make
// within the window.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

// DefaultAuthRateLimit is the limit applied to login, registration, and
// password reset endpoints. Kept tight because these are brute-force targets.
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
	}
}

// RateLimitByIP limits requests per client IP, honoring X-Forwarded-For via
// httprate's real-IP key function.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerWindow,
		config.Window,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limit_exceeded","message":"Too many requests, slow down"}`))
		}),
	)
}
