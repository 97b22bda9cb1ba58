// Package testkeys generates signing keys, JWKS documents and signed
// tokens for tests.
package testkeys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-jwkclient/keyset"
)

const (
	Issuer   = "https://go-jwkclient.eu.auth0.com/"
	Audience = "https://go-jwkclient-api/"
	Subject  = "1234567890"
)

// Key is a signing key pair.
type Key struct {
	ID        string
	Alg       jwa.SignatureAlgorithm
	Private   any
	Public    any
	NotBefore time.Time
}

// NewRSA returns an RS256 key.
func NewRSA(t testing.TB, kid string) *Key {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &Key{ID: kid, Alg: jwa.RS256, Private: privateKey, Public: &privateKey.PublicKey}
}

// NewEC returns an ES256 key.
func NewEC(t testing.TB, kid string) *Key {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return &Key{ID: kid, Alg: jwa.ES256, Private: privateKey, Public: &privateKey.PublicKey}
}

// Record returns the keyset.KeyRecord a fetcher would build for k.
func (k *Key) Record() keyset.KeyRecord {
	return keyset.KeyRecord{
		ID:        k.ID,
		Algorithm: k.Alg.String(),
		Material:  k.Public,
		NotBefore: k.NotBefore,
	}
}

// Claims returns a valid claims set for Issuer and Audience, expiring in an hour.
func Claims(now time.Time) map[string]any {
	return map[string]any{
		"iss": Issuer,
		"aud": []string{Audience},
		"sub": Subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

// Sign signs claims with k, naming k.ID in the kid header.
func (k *Key) Sign(t testing.TB, claims map[string]any) string {
	t.Helper()
	return k.SignWithKID(t, k.ID, claims)
}

// SignWithKID signs claims with k but names kid in the header.
func (k *Key) SignWithKID(t testing.TB, kid string, claims map[string]any) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	headers := jws.NewHeaders()
	require.NoError(t, headers.Set(jws.TypeKey, "JWT"))
	if kid != "" {
		require.NoError(t, headers.Set(jws.KeyIDKey, kid))
	}

	signed, err := jws.Sign(payload, jws.WithKey(k.Alg, k.Private, jws.WithProtectedHeaders(headers)))
	require.NoError(t, err)

	return string(signed)
}

// JWKS renders the public halves of keys as a JWKS document.
func JWKS(t testing.TB, keys ...*Key) []byte {
	t.Helper()

	set := jwk.NewSet()
	for _, k := range keys {
		key, err := jwk.FromRaw(k.Public)
		require.NoError(t, err)
		require.NoError(t, key.Set(jwk.KeyIDKey, k.ID))
		require.NoError(t, key.Set(jwk.AlgorithmKey, k.Alg))
		require.NoError(t, key.Set(jwk.KeyUsageKey, "sig"))
		if !k.NotBefore.IsZero() {
			require.NoError(t, key.Set("nbf", k.NotBefore.Unix()))
		}
		require.NoError(t, set.AddKey(key))
	}

	body, err := json.Marshal(set)
	require.NoError(t, err)
	return body
}

// Server serves a JWKS document that tests can swap at any time.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	body     []byte
	status   int
	requests atomic.Int32
}

// NewServer starts a Server serving keys at /.well-known/jwks.json.
func NewServer(t testing.TB, keys ...*Key) *Server {
	t.Helper()

	s := &Server{body: JWKS(t, keys...), status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)

		s.mu.Lock()
		body, status := s.body, s.status
		s.mu.Unlock()

		switch r.URL.Path {
		case "/.well-known/jwks.json":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write(body)
		case "/.well-known/openid-configuration":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"issuer":   s.URL + "/",
				"jwks_uri": s.JWKSURI(),
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(s.Close)

	return s
}

// JWKSURI is the URI of the served document.
func (s *Server) JWKSURI() string {
	return s.URL + "/.well-known/jwks.json"
}

// SetKeys replaces the served document.
func (s *Server) SetKeys(t testing.TB, keys ...*Key) {
	t.Helper()
	body := JWKS(t, keys...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
	s.status = http.StatusOK
}

// SetResponse serves an arbitrary status and body.
func (s *Server) SetResponse(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = []byte(body)
	s.status = status
}

// Requests returns how many requests the server has handled.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}
