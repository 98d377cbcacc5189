package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raagsetu/raag-engine/pkg/config"
)

// clientLimiter pairs a token bucket with its last-seen time so stale
// entries can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client token bucket keyed by remote IP. AI
// provider calls are slow and metered upstream, so the bucket mainly guards
// against accidental request loops from the UI.
type RateLimiter struct {
	cfg     config.RateLimitConfig
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiter creates a rate limiter from config.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		logger:  logger.Named("rate-limit"),
		clients: make(map[string]*clientLimiter),
	}
}

// Handler wraps next with rate limiting. Disabled config passes through.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			rl.logger.Debug("Request rate limited",
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("path", r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limited",
				"message": "Too many requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		}
		rl.clients[key] = cl
	}
	cl.lastSeen = time.Now()

	// Opportunistic eviction keeps the map bounded without a sweeper
	// goroutine.
	if len(rl.clients) > 1024 {
		cutoff := time.Now().Add(-10 * time.Minute)
		for k, c := range rl.clients {
			if c.lastSeen.Before(cutoff) {
				delete(rl.clients, k)
			}
		}
	}

	return cl.limiter.Allow()
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
