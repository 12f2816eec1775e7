// Package ratelimit keeps one token bucket per key (a provider name, for instance).
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter applies a token bucket per string key and periodically evicts idle entries.
type Limiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*entry
	hits    uint64
	idleTTL time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a keyed limiter. It returns nil, which allows everything, when
// rps or burst is not positive.
func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*entry),
		idleTTL: idleTTL,
	}
}

// Allow reports whether one token can be consumed for key at now.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}
