package submitguard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ai-newsletter/subscription-api/internal/ports/out/submitguard"
)

type hold struct {
	lease submitguard.Lease
	exp   time.Time
}

// Guard is an in-process submitguard.Guard for single-instance deployments and tests.
// It is safe for concurrent use.
type Guard struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	held map[string]hold
}

func NewGuard(ttl time.Duration) *Guard {
	return NewGuardWithClock(ttl, time.Now)
}

func NewGuardWithClock(ttl time.Duration, now func() time.Time) *Guard {
	return &Guard{
		ttl:  ttl,
		now:  now,
		held: make(map[string]hold),
	}
}

func (g *Guard) Acquire(ctx context.Context, email string) (submitguard.Lease, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if h, ok := g.held[email]; ok && now.Before(h.exp) {
		return "", false, nil
	}
	lease := submitguard.Lease(uuid.NewString())
	g.held[email] = hold{lease: lease, exp: now.Add(g.ttl)}
	g.sweepLocked(now)
	return lease, true, nil
}

func (g *Guard) Release(_ context.Context, email string, lease submitguard.Lease) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok := g.held[email]; ok && h.lease == lease {
		delete(g.held, email)
	}
	return nil
}

// sweepLocked drops expired entries so the map does not grow without bound.
func (g *Guard) sweepLocked(now time.Time) {
	for k, h := range g.held {
		if !now.Before(h.exp) {
			delete(g.held, k)
		}
	}
}
