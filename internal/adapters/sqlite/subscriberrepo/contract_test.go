package subscriberrepo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ai-newsletter/subscription-api/internal/adapters/contracttest"
	"github.com/ai-newsletter/subscription-api/internal/adapters/sqlite"
	subscriberrepoport "github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

func TestContract_SQLiteSubscriberRepo(t *testing.T) {
	contracttest.RunSubscriberRepo(t, func(t *testing.T) (subscriberrepoport.Repository, func()) {
		t.Helper()
		db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "subscribers.db"))
		if err != nil {
			t.Fatalf("sqlite.Open: %v", err)
		}
		return NewRepo(db), func() { _ = db.Close() }
	})
}

func TestRepo_InMemoryDatabase(t *testing.T) {
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepo(db)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(List())=%d, want 0", len(got))
	}
}
