package main

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Tiny dev-only JWT issuer + JWKS server for the admin listing.
//
// This is NOT a full OIDC provider. It exists to support local development against
// real RS256 JWT verification (iss/aud/exp + JWKS).

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	port := getenv("PORT", "5556")
	issuer := getenv("ISSUER", "http://devjwt:5556")
	audience := getenv("AUDIENCE", "newsletter-admin")
	kid := getenv("KID", "dev-kid-1")
	ttl := getenvDuration(logger, "TTL", 30*time.Minute)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		logger.Fatal("generate key", zap.Error(err))
	}

	jwksJSON, err := marshalJWKS(priv.PublicKey, kid)
	if err != nil {
		logger.Fatal("marshal jwks", zap.Error(err))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(jwksJSON)
	})

	// Mint a JWT:
	//   GET /token?sub=dev|admin
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimSpace(r.URL.Query().Get("sub"))
		if sub == "" {
			http.Error(w, "missing sub", http.StatusBadRequest)
			return
		}

		now := time.Now().UTC()
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
		})
		tok.Header["kid"] = kid
		signed, err := tok.SignedString(priv)
		if err != nil {
			logger.Error("mint token", zap.Error(err))
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}
		logger.Info("minted token", zap.String("sub", sub))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": signed,
			"sub":   sub,
			"iss":   issuer,
			"aud":   audience,
			"exp":   now.Add(ttl).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("devjwt listening",
		zap.String("addr", srv.Addr),
		zap.String("iss", issuer),
		zap.String("aud", audience),
		zap.String("kid", kid),
		zap.Duration("ttl", ttl),
	)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}

func marshalJWKS(pub rsa.PublicKey, kid string) ([]byte, error) {
	enc := base64.RawURLEncoding
	set := jwks{
		Keys: []jwk{{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kid,
			N:   enc.EncodeToString(pub.N.Bytes()),
			E:   enc.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	return json.Marshal(set)
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(logger *zap.Logger, k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("ignoring malformed duration", zap.String("env", k), zap.String("value", v))
		return def
	}
	return d
}
