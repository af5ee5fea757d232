package config

import (
	"fmt"
	"os"
	"time"
)

// JWTConfig configures admin JWT verification against a JWKS endpoint.
type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string

	ClockSkew              time.Duration
	JWKSRefreshInterval    time.Duration
	JWKSMinRefreshInterval time.Duration

	HTTPTimeout time.Duration
}

func LoadJWTConfigFromEnv() (JWTConfig, error) {
	issuer := os.Getenv("JWT_ISSUER")
	audience := os.Getenv("JWT_AUDIENCE")
	jwksURL := os.Getenv("JWT_JWKS_URL")
	if issuer == "" || audience == "" || jwksURL == "" {
		return JWTConfig{}, fmt.Errorf("missing required env vars: JWT_ISSUER, JWT_AUDIENCE, JWT_JWKS_URL")
	}

	cfg := JWTConfig{
		Issuer:    issuer,
		Audience:  audience,
		JWKSURL:   jwksURL,
		ClockSkew: 30 * time.Second,
		// Refresh periodically to pick up key rotation even if an old key is still cached.
		JWKSRefreshInterval: 5 * time.Minute,
		// Bound refresh frequency when a token presents an unknown kid.
		JWKSMinRefreshInterval: 10 * time.Second,
		HTTPTimeout:            5 * time.Second,
	}

	for _, d := range []struct {
		env string
		dst *time.Duration
		eg  string
	}{
		{"JWT_CLOCK_SKEW", &cfg.ClockSkew, "30s"},
		{"JWT_JWKS_REFRESH_INTERVAL", &cfg.JWKSRefreshInterval, "5m"},
		{"JWT_JWKS_MIN_REFRESH_INTERVAL", &cfg.JWKSMinRefreshInterval, "10s"},
		{"JWT_HTTP_TIMEOUT", &cfg.HTTPTimeout, "5s"},
	} {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return JWTConfig{}, fmt.Errorf("%s must be a duration (e.g. %s): %w", d.env, d.eg, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}
