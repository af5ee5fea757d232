package jwtverifier

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ai-newsletter/subscription-api/internal/platform/config"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Verifier struct {
	cfg    config.JWTConfig
	client *http.Client
	clock  Clock

	mu          sync.Mutex
	keysByKID   map[string]*rsa.PublicKey
	lastRefresh time.Time
	refreshing  bool
	refreshDone chan struct{}
}

func New(cfg config.JWTConfig) *Verifier {
	return NewWithOptions(cfg, nil, nil)
}

func NewWithOptions(cfg config.JWTConfig, httpClient *http.Client, clock Clock) *Verifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Verifier{
		cfg:       cfg,
		client:    httpClient,
		clock:     clock,
		keysByKID: map[string]*rsa.PublicKey{},
	}
}

// Verify verifies an admin bearer token and returns the subject from the `sub` claim.
//
// Verification:
// - RS256 signature using keys fetched from JWKS (selected by `kid`)
// - iss and aud must match, exp is required, nbf is honoured when present
// - ClockSkew is applied as leeway to exp/nbf
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		// Refresh rules:
		// - refresh periodically (rotation), even if kid exists in cache
		// - refresh on unknown kid, bounded by min refresh interval
		if err := v.maybeRefresh(ctx, kid); err != nil {
			return nil, err
		}
		pub := v.getKey(kid)
		if pub == nil {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return pub, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return "", ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

func (v *Verifier) getKey(kid string) *rsa.PublicKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.keysByKID[kid]
}

func (v *Verifier) maybeRefresh(ctx context.Context, kid string) error {
	now := v.clock.Now()

	v.mu.Lock()
	needsIntervalRefresh := !v.lastRefresh.IsZero() && v.cfg.JWKSRefreshInterval > 0 && now.Sub(v.lastRefresh) >= v.cfg.JWKSRefreshInterval
	unknownKid := v.keysByKID[kid] == nil
	allowedUnknownKidRefresh := v.lastRefresh.IsZero() || v.cfg.JWKSMinRefreshInterval <= 0 || now.Sub(v.lastRefresh) >= v.cfg.JWKSMinRefreshInterval
	shouldRefresh := needsIntervalRefresh || (unknownKid && allowedUnknownKidRefresh)

	if !shouldRefresh {
		v.mu.Unlock()
		return nil
	}

	// Deduplicate concurrent refresh attempts.
	if v.refreshing {
		ch := v.refreshDone
		v.mu.Unlock()
		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	v.refreshing = true
	v.refreshDone = make(chan struct{})
	ch := v.refreshDone
	v.mu.Unlock()

	err := v.refresh(ctx)

	v.mu.Lock()
	v.refreshing = false
	close(ch)
	v.mu.Unlock()

	return err
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("jwks fetch failed: status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	keys, err := parseJWKS(body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.keysByKID = keys
	v.lastRefresh = v.clock.Now()
	v.mu.Unlock()

	return nil
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func parseJWKS(b []byte) (map[string]*rsa.PublicKey, error) {
	var set jwks
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, err
	}
	out := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" || k.N == "" || k.E == "" {
			continue
		}
		nb, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, err
		}
		eb, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, err
		}
		e := new(big.Int).SetBytes(eb).Int64()
		if e <= 0 || e > int64(^uint(0)>>1) {
			return nil, fmt.Errorf("invalid jwk exponent")
		}
		out[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(e),
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable jwks keys")
	}
	return out, nil
}
