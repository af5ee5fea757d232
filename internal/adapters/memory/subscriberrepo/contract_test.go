package subscriberrepo

import (
	"testing"

	"github.com/ai-newsletter/subscription-api/internal/adapters/contracttest"
	subscriberrepoport "github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

func TestContract_SubscriberRepo(t *testing.T) {
	contracttest.RunSubscriberRepo(t, func(t *testing.T) (subscriberrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
