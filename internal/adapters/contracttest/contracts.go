package contracttest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ai-newsletter/subscription-api/internal/domain"
	subscriberrepoport "github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

type CleanupFunc = func()

type SubscriberRepoFactory func(t *testing.T) (subscriberrepoport.Repository, CleanupFunc)

// RunSubscriberRepo exercises the behaviour every subscriber store must share.
func RunSubscriberRepo(t *testing.T, newRepo SubscriberRepoFactory) {
	t.Helper()

	t.Run("CreateThenGetByEmail", func(t *testing.T) {
		repo := open(t, newRepo)
		ctx := context.Background()

		now := time.Unix(1000, 0).UTC()
		s := subscriberrepoport.Subscriber{
			ID:        domain.SubscriberID(uuid.NewString()),
			Email:     "alice@example.com",
			Status:    domain.StatusActive,
			CreatedAt: now,
		}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.GetByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetByEmail: %v", err)
		}
		if got.ID != s.ID || got.Email != s.Email || got.Status != domain.StatusActive || !got.CreatedAt.Equal(now) {
			t.Fatalf("GetByEmail()=%+v, want %+v", got, s)
		}

		if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, subscriberrepoport.ErrNotFound) {
			t.Fatalf("GetByEmail(missing) err=%v, want ErrNotFound", err)
		}
		if err := repo.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})

	t.Run("EmailUniqueness", func(t *testing.T) {
		repo := open(t, newRepo)
		ctx := context.Background()

		now := time.Unix(1000, 0).UTC()
		first := subscriberrepoport.Subscriber{
			ID:        domain.SubscriberID(uuid.NewString()),
			Email:     "bob@example.com",
			Status:    domain.StatusActive,
			CreatedAt: now,
		}
		if err := repo.Create(ctx, first); err != nil {
			t.Fatalf("Create first: %v", err)
		}
		dup := first
		dup.ID = domain.SubscriberID(uuid.NewString())
		dup.CreatedAt = now.Add(time.Second)
		if err := repo.Create(ctx, dup); !errors.Is(err, subscriberrepoport.ErrEmailTaken) {
			t.Fatalf("Create duplicate email err=%v, want ErrEmailTaken", err)
		}

		sameID := first
		sameID.Email = "bob2@example.com"
		if err := repo.Create(ctx, sameID); !errors.Is(err, subscriberrepoport.ErrAlreadyExists) {
			t.Fatalf("Create duplicate id err=%v, want ErrAlreadyExists", err)
		}

		// Matching is exact; a differently-cased address is a different subscriber.
		upper := subscriberrepoport.Subscriber{
			ID:        domain.SubscriberID(uuid.NewString()),
			Email:     "Bob@example.com",
			Status:    domain.StatusActive,
			CreatedAt: now,
		}
		if err := repo.Create(ctx, upper); err != nil {
			t.Fatalf("Create differently-cased email: %v", err)
		}

		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("len(List())=%d, want 2", len(all))
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		repo := open(t, newRepo)
		ctx := context.Background()

		empty, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List empty: %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("len(List())=%d on empty store", len(empty))
		}

		base := time.Unix(2000, 0).UTC()
		emails := []string{"one@example.com", "two@example.com", "three@example.com"}
		for i, e := range emails {
			if err := repo.Create(ctx, subscriberrepoport.Subscriber{
				ID:        domain.SubscriberID(uuid.NewString()),
				Email:     e,
				Status:    domain.StatusActive,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}); err != nil {
				t.Fatalf("Create %s: %v", e, err)
			}
		}

		got, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"three@example.com", "two@example.com", "one@example.com"}
		if len(got) != len(want) {
			t.Fatalf("len(List())=%d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Email != want[i] {
				t.Fatalf("List()[%d].Email=%q, want %q", i, got[i].Email, want[i])
			}
			if got[i].CreatedAt.Location() != time.UTC {
				t.Fatalf("List()[%d].CreatedAt not UTC: %v", i, got[i].CreatedAt)
			}
		}
		if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
			t.Fatalf("List()[0].CreatedAt=%v, want %v", got[0].CreatedAt, base.Add(2*time.Minute))
		}
	})

	t.Run("ConcurrentCreateSameEmail", func(t *testing.T) {
		repo := open(t, newRepo)
		ctx := context.Background()

		const n = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			ok      int
			taken   int
			unknown []error
		)
		now := time.Unix(3000, 0).UTC()
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Create(ctx, subscriberrepoport.Subscriber{
					ID:        domain.SubscriberID(uuid.NewString()),
					Email:     "race@example.com",
					Status:    domain.StatusActive,
					CreatedAt: now,
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case errors.Is(err, subscriberrepoport.ErrEmailTaken):
					taken++
				default:
					unknown = append(unknown, err)
				}
			}()
		}
		wg.Wait()

		if len(unknown) > 0 {
			t.Fatalf("unexpected errors: %v", unknown)
		}
		if ok != 1 || taken != n-1 {
			t.Fatalf("ok=%d taken=%d, want 1 and %d", ok, taken, n-1)
		}
	})
}

func open(t *testing.T, newRepo SubscriberRepoFactory) subscriberrepoport.Repository {
	t.Helper()
	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return repo
}
