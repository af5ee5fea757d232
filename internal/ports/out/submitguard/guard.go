package submitguard

import "context"

// Lease identifies one holder of a guard lock. Only the holder's lease can release it.
type Lease string

// Guard is a short-lived lock keyed by email. It serializes concurrent duplicate
// submissions before they reach the subscriber store.
//
// Acquire returns ok=true and a lease when the caller holds the lock. Implementations
// hold the lock until Release with that lease or until their TTL expires, whichever
// comes first. Releasing with a stale lease is a no-op.
type Guard interface {
	Acquire(ctx context.Context, email string) (lease Lease, ok bool, err error)
	Release(ctx context.Context, email string, lease Lease) error
}

// Noop never blocks a submission.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (Lease, bool, error) { return "", true, nil }
func (Noop) Release(context.Context, string, Lease) error         { return nil }
