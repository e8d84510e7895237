package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"interviewai/internal/errors"
	"interviewai/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const limiterIdleEviction = 10 * time.Minute

// clientBucket is the token bucket of one caller, keyed by IP or API key.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller and evicts idle ones.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*clientBucket
	perSec   rate.Limit
	burst    int
	rejected int64
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	logger   *errors.Logger
}

// NewRateLimiter allows requestsPerMin per caller with the given burst.
func NewRateLimiter(requestsPerMin, burstCapacity int, logger *errors.Logger) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*clientBucket),
		perSec:  rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burstCapacity,
		now:     time.Now,
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go rl.evictLoop(limiterIdleEviction)
	return rl
}

// Reserve takes a token for key. When none is available it returns false
// and how long the caller should wait.
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.perSec, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	rl.rejected++

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// Stats reports the limiter settings and counters for /stats.
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"tracked_clients":   len(rl.buckets),
		"requests_per_min":  float64(rl.perSec) * 60.0,
		"burst_capacity":    rl.burst,
		"rejected_requests": rl.rejected,
	}
}

func (rl *RateLimiter) evictLoop(idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(idle)
		case <-rl.stop:
			return
		}
	}
}

// evictIdle drops buckets not used for longer than idle.
func (rl *RateLimiter) evictIdle(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	evicted := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			evicted++
		}
	}
	if rl.logger != nil && evicted > 0 {
		rl.logger.Debug("Evicted idle rate limit buckets",
			"evicted", evicted,
			"remaining", len(rl.buckets))
	}
	return evicted
}

// Close stops the eviction goroutine.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// rateLimitMiddleware answers 429 with Retry-After once a caller's bucket
// is empty, and records the hit.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			allowed, wait := s.RateLimiter.Reserve(key)
			if allowed {
				next(w, r)
				return
			}

			s.Logger.Info("Rate limit exceeded",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"retry_after", wait.String())
			s.Telemetry.RecordEvent(r.Context(), observability.EventRateLimitHit, true,
				attribute.String("endpoint", r.URL.Path),
				attribute.String("method", r.Method))
			if wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			writeErrorResponse(w, "RATE_LIMITED", "Too many requests, slow down and try again", http.StatusTooManyRequests)
		}
	}
}

// getRateLimitKey picks the bucket for a request, API key first when enabled.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}
	if byIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

// getClientIP prefers proxy headers over RemoteAddr.
func getClientIP(r *http.Request) string {
	for ip := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if ip = strings.TrimSpace(ip); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
