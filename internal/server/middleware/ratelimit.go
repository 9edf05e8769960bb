package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/agentstation/stonemap/internal/server/response"
)

// RateLimiter holds one token bucket per client. Idle clients expire from
// the cache and start again with a full bucket.
type RateLimiter struct {
	perMinute int
	clients   *gocache.Cache
	logger    *zerolog.Logger
}

// NewRateLimiter creates a limiter allowing perMinute requests per client,
// with bursts up to the same amount.
func NewRateLimiter(perMinute int, logger *zerolog.Logger) *RateLimiter {
	perMinute = max(perMinute, 1)
	return &RateLimiter{
		perMinute: perMinute,
		clients:   gocache.New(10*time.Minute, 10*time.Minute),
		logger:    logger,
	}
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	if v, ok := rl.clients.Get(client); ok {
		rl.clients.SetDefault(client, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute)
	// Add fails when another request created the limiter first
	if err := rl.clients.Add(client, l, gocache.DefaultExpiration); err != nil {
		if v, ok := rl.clients.Get(client); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow reports whether a request from client may proceed.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.limiter(client).Allow()
}

// RateLimit rejects requests over the limit with 429.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientIP(r)
			if !rl.Allow(client) {
				rl.logger.Warn().
					Str("client", client).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", "60")
				response.RateLimited(w, "Too many requests, retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For entry over the peer address.
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
