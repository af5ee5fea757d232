package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ai-newsletter/subscription-api/internal/adapters/httpapi"
	memclock "github.com/ai-newsletter/subscription-api/internal/adapters/memory/clock"
	memguard "github.com/ai-newsletter/subscription-api/internal/adapters/memory/submitguard"
	memsubscriberrepo "github.com/ai-newsletter/subscription-api/internal/adapters/memory/subscriberrepo"
	pgsubscriberrepo "github.com/ai-newsletter/subscription-api/internal/adapters/postgres/subscriberrepo"
	postgres_testutil "github.com/ai-newsletter/subscription-api/internal/adapters/postgres/testutil"
	"github.com/ai-newsletter/subscription-api/internal/adapters/sqlite"
	sqlitesubscriberrepo "github.com/ai-newsletter/subscription-api/internal/adapters/sqlite/subscriberrepo"
	"github.com/ai-newsletter/subscription-api/internal/app/subscriptions"
	subscriberrepoport "github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|sqlite|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	clk     *memclock.ManualClock
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var repo subscriberrepoport.Repository
	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		repo = pgsubscriberrepo.NewRepo(pool)
	case backendSQLite:
		db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "itest.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		repo = sqlitesubscriberrepo.NewRepo(db)
	case backendMemory:
		repo = memsubscriberrepo.NewRepo()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	svc := subscriptions.NewService(repo, clk, subscriptions.WithGuard(memguard.NewGuard(time.Second)))
	api := httpapi.NewServer(svc, nil)

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// An empty default subject means requests MUST provide X-Debug-Subject.
	authMW := httpapi.NewDevAuthMiddleware("", httpapi.AuthOptions{AdminSubjects: []string{"itest|admin"}})
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AdminAuth: authMW})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		clk:     clk,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireEnvelope(t *testing.T, status int, body []byte, wantStatus int, wantSuccess bool, wantMessage string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[envelope](t, body)
	if got.Success != wantSuccess || got.Message != wantMessage {
		t.Fatalf("envelope=%+v want success=%v message=%q", got, wantSuccess, wantMessage)
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
