package jwks_testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Keypair struct {
	Kid     string
	Private *rsa.PrivateKey
}

func GenerateRSAKeypair(kid string) (Keypair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Kid: kid, Private: priv}, nil
}

// MarshalJWKS renders the public halves of keys as a JWKS document.
func MarshalJWKS(keys []Keypair) ([]byte, error) {
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
	out := jwks{Keys: make([]jwk, 0, len(keys))}
	for _, kp := range keys {
		pub := kp.Private.PublicKey
		out.Keys = append(out.Keys, jwk{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kp.Kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			// e is a big-endian unsigned int.
			E: base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return json.Marshal(out)
}

// NewRotatingJWKSServer returns a JWKS server whose key set can be swapped at runtime.
//
// Use SetKeys to rotate keys.
func NewRotatingJWKSServer() (*httptest.Server, func(keys []Keypair)) {
	var jwksJSON atomic.Value // string
	jwksJSON.Store(`{"keys":[]}`)

	setKeys := func(keys []Keypair) {
		b, _ := MarshalJWKS(keys)
		jwksJSON.Store(string(b))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(jwksJSON.Load().(string)))
	}))

	return srv, setKeys
}

// MintRS256JWT creates a signed JWT using RS256 with the given keypair.
//
// aud may be either a string or []string.
func MintRS256JWT(kp Keypair, iss string, aud any, sub string, now time.Time, expDelta time.Duration, nbfDelta *time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"iss": iss,
		"aud": aud,
		"sub": sub,
		"exp": now.Add(expDelta).Unix(),
	}
	if nbfDelta != nil {
		claims["nbf"] = now.Add(*nbfDelta).Unix()
	}
	return MintClaims(kp, claims)
}

// MintClaims signs arbitrary claims with RS256, setting the kid header.
func MintClaims(kp Keypair, claims jwt.MapClaims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kp.Kid
	return tok.SignedString(kp.Private)
}
