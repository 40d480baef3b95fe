package server

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/54b3r/ragcypher-go/internal/logging"
)

// Translation calls fan out to an embedding service, a vector index and a
// chat model, so the per-client defaults are deliberately low.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

// Eviction cadence for idle client buckets.
const (
	evictEvery = time.Minute
	idleAfter  = 5 * time.Minute
)

// bucket is one client's token bucket and its last use.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a token-bucket limit per client IP on
// POST /api/translate.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	log     *slog.Logger
	// onReject, when set, is called once per rejected request.
	onReject func()
	// now is time.Now outside tests.
	now func() time.Time
}

// newRateLimiter constructs a rateLimiter and starts its eviction goroutine,
// which runs until the returned stop function is called.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		log:     log,
		now:     time.Now,
	}

	stopCh := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(evictEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				rl.evictIdle()
			}
		}
	}()

	return rl, func() { once.Do(func() { close(stopCh) }) }
}

// allow reports whether key may proceed, creating its bucket on first use.
func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = rl.now()
	return b.limiter.AllowN(b.lastSeen, 1)
}

// evictIdle drops buckets unused for longer than idleAfter. An evicted
// client starts again with a full bucket.
func (rl *rateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleAfter)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// size returns the number of tracked clients.
func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// retryAfterSeconds is the Retry-After hint: the time for one token to
// refill, rounded up to whole seconds.
func (rl *rateLimiter) retryAfterSeconds() int {
	if rl.rps <= 0 {
		return 1
	}
	secs := int(1/float64(rl.rps) + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// middleware rejects over-limit requests with 429 and a JSON error body.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if rl.allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		logging.FromContext(r.Context()).Warn("rate limit exceeded",
			slog.String("ip", ip),
			slog.String("path", r.URL.Path),
		)
		if rl.onReject != nil {
			rl.onReject()
		}
		w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})
}

// clientIP returns the host part of RemoteAddr. X-Forwarded-For is not
// trusted since the server binds to localhost by default.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
