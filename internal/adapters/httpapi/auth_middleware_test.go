package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memclock "github.com/ai-newsletter/subscription-api/internal/adapters/memory/clock"
	memsubscriberrepo "github.com/ai-newsletter/subscription-api/internal/adapters/memory/subscriberrepo"
	"github.com/ai-newsletter/subscription-api/internal/app/subscriptions"
	"github.com/ai-newsletter/subscription-api/internal/platform/auth/jwks_testutil"
	"github.com/ai-newsletter/subscription-api/internal/platform/auth/jwtverifier"
	"github.com/ai-newsletter/subscription-api/internal/platform/config"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestServer() *Server {
	repo := memsubscriberrepo.NewRepo()
	svc := subscriptions.NewService(repo, memclock.NewManualClock(time.Unix(1700000000, 0).UTC()))
	return NewServer(svc, nil)
}

func newTestAuthRouter(t *testing.T, admins []string) (http.Handler, func(sub string, now time.Time) string) {
	t.Helper()

	jwksSrv, setKeys := jwks_testutil.NewRotatingJWKSServer()
	t.Cleanup(jwksSrv.Close)

	kp, err := jwks_testutil.GenerateRSAKeypair("kid-1")
	if err != nil {
		t.Fatalf("GenerateRSAKeypair: %v", err)
	}
	setKeys([]jwks_testutil.Keypair{kp})

	cfg := config.JWTConfig{
		Issuer:                 "test-iss",
		Audience:               "test-aud",
		JWKSURL:                jwksSrv.URL,
		ClockSkew:              0,
		JWKSRefreshInterval:    10 * time.Minute,
		JWKSMinRefreshInterval: 0,
		HTTPTimeout:            2 * time.Second,
	}

	clk := fixedClock{t: time.Unix(1700000000, 0)}
	v := jwtverifier.NewWithOptions(cfg, nil, clk)

	mint := func(sub string, now time.Time) string {
		tok, err := jwks_testutil.MintRS256JWT(kp, cfg.Issuer, cfg.Audience, sub, now, 5*time.Minute, nil)
		if err != nil {
			t.Fatalf("MintRS256JWT: %v", err)
		}
		return tok
	}

	h := NewRouterWithOptions(newTestServer(), RouterOptions{
		AdminAuth: NewAuthMiddleware(v, AuthOptions{AdminSubjects: admins}),
	})
	return h, mint
}

func assertUnauthorized(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, http.StatusUnauthorized, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if env.Success || env.Message != "인증이 필요합니다." {
		t.Fatalf("envelope=%+v", env)
	}
	assertCORS(t, rec)
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/subscribers", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	assertUnauthorized(t, rec)
}

func TestAuthMiddleware_MalformedHeader_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t, nil)
	for _, authz := range []string{"Basic abc", "Bearer ", "Bearer not.a.jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/subscribers", nil)
		req.Header.Set("Authorization", authz)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assertUnauthorized(t, rec)
	}
}

func TestAuthMiddleware_ExpiredToken_401(t *testing.T) {
	t.Parallel()

	h, mint := newTestAuthRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/subscribers", nil)
	req.Header.Set("Authorization", "Bearer "+mint("admin-1", time.Unix(1700000000, 0).Add(-time.Hour)))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	assertUnauthorized(t, rec)
}

func TestAuthMiddleware_ValidToken_AllowsListing(t *testing.T) {
	t.Parallel()

	h, mint := newTestAuthRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/subscribers", nil)
	req.Header.Set("Authorization", "Bearer "+mint("admin-1", time.Unix(1700000000, 0)))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestAuthMiddleware_AdminAllowList(t *testing.T) {
	t.Parallel()

	h, mint := newTestAuthRouter(t, []string{"admin-1"})
	now := time.Unix(1700000000, 0)

	req := httptest.NewRequest(http.MethodGet, "/subscribers", nil)
	req.Header.Set("Authorization", "Bearer "+mint("member-9", now))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assertUnauthorized(t, rec)

	req = httptest.NewRequest(http.MethodGet, "/subscribers", nil)
	req.Header.Set("Authorization", "Bearer "+mint("admin-1", now))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_PublicRoutesStayOpen(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t, nil)
	for _, tc := range []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/subscribe", `{"email":"open@example.com"}`, http.StatusOK},
		{http.MethodOptions, "/subscribers", "", http.StatusNoContent},
	} {
		rec := do(t, h, tc.method, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s %s status=%d want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	t.Parallel()

	echoSubject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, _ := SubjectFromContext(r.Context())
		_, _ = w.Write([]byte(sub))
	})

	cases := []struct {
		name     string
		fallback string
		admins   []string
		header   string
		wantCode int
		wantSub  string
	}{
		{name: "header subject", header: "dev-admin", wantCode: http.StatusOK, wantSub: "dev-admin"},
		{name: "fallback subject", fallback: "local", wantCode: http.StatusOK, wantSub: "local"},
		{name: "no subject", wantCode: http.StatusUnauthorized},
		{name: "not on allow-list", header: "someone", admins: []string{"dev-admin"}, wantCode: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := NewDevAuthMiddleware(tc.fallback, AuthOptions{AdminSubjects: tc.admins})(echoSubject)
			req := httptest.NewRequest(http.MethodGet, "/subscribers", nil)
			if tc.header != "" {
				req.Header.Set("X-Debug-Subject", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.wantCode {
				t.Fatalf("status=%d want %d", rec.Code, tc.wantCode)
			}
			if tc.wantCode == http.StatusOK && rec.Body.String() != tc.wantSub {
				t.Fatalf("subject=%q want %q", rec.Body.String(), tc.wantSub)
			}
		})
	}
}
