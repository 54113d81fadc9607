// Package ratelimit throttles requests per client key with token buckets.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config allows Requests per Window for each key. The whole allowance is
// available as a burst and refills evenly over the window.
type Config struct {
	Requests        int
	Window          time.Duration
	CleanupInterval time.Duration
	// StaleAfter is how long an idle key is remembered. It defaults to the
	// window so a key is never forgotten while it is still throttled.
	StaleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		Requests:        60,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks one token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	interval time.Duration
	stale    time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.Requests <= 0 {
		config.Requests = def.Requests
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if config.StaleAfter < config.Window {
		config.StaleAfter = config.Window
	}

	l := &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(config.Window / time.Duration(config.Requests)),
		burst:    config.Requests,
		interval: config.Window / time.Duration(config.Requests),
		stale:    config.StaleAfter,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(config.CleanupInterval)
	return l
}

func (l *Limiter) visitor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	return l.visitor(key, now).AllowN(now, 1)
}

// RetryAfter is the number of seconds until one more request would pass.
func (l *Limiter) RetryAfter() int {
	return int(math.Ceil(l.interval.Seconds()))
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.CleanupStale()
		case <-l.stop:
			return
		}
	}
}

// CleanupStale forgets keys idle for longer than StaleAfter and returns how
// many were removed.
func (l *Limiter) CleanupStale() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.stale)
	removed := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware rejects requests over the limit. onLimit writes the rejection;
// when nil a plain 429 is sent. Retry-After is always set.
func (l *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter()))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
