package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorTTL      = 10 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateGate keeps one token bucket per conversation hash so a single noisy
// chat cannot starve the rest. A limit of rate.Inf disables gating.
type rateGate struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

func newRateGate(limit rate.Limit, burst int) *rateGate {
	return &rateGate{
		limit:    limit,
		burst:    burst,
		visitors: make(map[string]*visitor),
	}
}

func (g *rateGate) allow(key string) bool {
	if g.limit == rate.Inf {
		return true
	}

	g.mu.Lock()
	v, ok := g.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(g.limit, g.burst)}
		g.visitors[key] = v
	}
	v.lastSeen = time.Now()
	g.mu.Unlock()

	return v.limiter.Allow()
}

// run evicts buckets idle longer than visitorTTL until ctx is cancelled.
func (g *rateGate) run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.mu.Lock()
			for key, v := range g.visitors {
				if time.Since(v.lastSeen) > visitorTTL {
					delete(g.visitors, key)
				}
			}
			g.mu.Unlock()
		}
	}
}
