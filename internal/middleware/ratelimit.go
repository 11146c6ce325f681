package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 50, Burst: 100}
}

// Un bucket sin uso por limiterIdleTTL ya está lleno: borrarlo no cambia el límite.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore guarda un token bucket por IP. Las entradas inactivas se
// barren desde get, como mucho una vez por limiterIdleTTL.
type limiterStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	cfg       RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{visitors: map[string]*visitor{}, cfg: cfg, now: time.Now}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterIdleTTL {
		s.evict(now)
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// evict requiere s.mu tomado.
func (s *limiterStore) evict(now time.Time) {
	for k, v := range s.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(s.visitors, k)
		}
	}
	s.lastSweep = now
}

// RateLimit corta con 429 + Retry-After cuando una IP supera el bucket.
// RequestsPerSecond <= 0 desactiva el límite.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	store := newLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next http.Handler) http.Handler {
		if cfg.RequestsPerSecond <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := store.get(clientIP(r))
			w.Header().Set("X-RateLimit-Limit", limit)

			if !l.Allow() {
				wait := math.Ceil(1 / cfg.RequestsPerSecond)
				w.Header().Set("Retry-After", strconv.Itoa(int(wait)))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
