package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type testIssuer struct {
	srv      *httptest.Server
	key      *rsa.PrivateKey
	kid      string
	jwksHits atomic.Int32
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ti := &testIssuer{key: key, kid: "k1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"jwks_uri": ti.srv.URL + "/certs"})
	})
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		ti.jwksHits.Add(1)
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kid: ti.kid,
			Kty: "RSA",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(ti.key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(ti.key.E)).Bytes()),
		}}})
	})
	ti.srv = httptest.NewServer(mux)
	t.Cleanup(ti.srv.Close)
	return ti
}

func (ti *testIssuer) sign(t *testing.T, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = ti.kid
	s, err := tok.SignedString(ti.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func (ti *testIssuer) claims(aud string, exp time.Time) Claims {
	return Claims{
		Email: "ann@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.srv.URL,
			Subject:   "google-sub-1",
			Audience:  jwt.ClaimStrings{aud},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestVerifyIDToken(t *testing.T) {
	ti := newTestIssuer(t)
	v := NewVerifier(ti.srv.URL, "client", ti.srv.Client())

	claims, err := v.VerifyIDToken(context.Background(), ti.sign(t, ti.claims("client", time.Now().Add(time.Hour))))
	if err != nil {
		t.Fatalf("VerifyIDToken() error: %v", err)
	}
	if claims.Subject != "google-sub-1" || claims.Email != "ann@example.com" {
		t.Fatalf("VerifyIDToken() claims = %+v", claims)
	}

	if _, err := v.VerifyIDToken(context.Background(), ti.sign(t, ti.claims("client", time.Now().Add(time.Hour)))); err != nil {
		t.Fatalf("second VerifyIDToken() error: %v", err)
	}
	if n := ti.jwksHits.Load(); n != 1 {
		t.Fatalf("jwks fetched %d times, want cached after first", n)
	}
}

func TestVerifyIDTokenRejects(t *testing.T) {
	ti := newTestIssuer(t)
	v := NewVerifier(ti.srv.URL, "client", ti.srv.Client())

	cases := []struct {
		name  string
		token string
	}{
		{name: "audience mismatch", token: ti.sign(t, ti.claims("other", time.Now().Add(time.Hour)))},
		{name: "expired", token: ti.sign(t, ti.claims("client", time.Now().Add(-time.Hour)))},
		{name: "garbage", token: "not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.VerifyIDToken(context.Background(), tc.token); err == nil {
				t.Fatalf("VerifyIDToken() expected error")
			}
		})
	}

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, ti.claims("client", time.Now().Add(time.Hour)))
	signed, _ := hs.SignedString([]byte("secret"))
	if _, err := v.VerifyIDToken(context.Background(), signed); err == nil {
		t.Fatalf("VerifyIDToken() accepted HS256 token")
	}
}

func TestVerifyIDTokenRequiresClientID(t *testing.T) {
	if _, err := NewVerifier("https://accounts.google.com", "", nil).VerifyIDToken(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without client id")
	}
}
