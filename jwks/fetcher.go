package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/auth0/go-jwkclient/core"
	"github.com/auth0/go-jwkclient/internal/oidc"
	"github.com/auth0/go-jwkclient/keyset"
)

// maxJWKSResponseSize limits the size of JWKS HTTP responses.
// 1MB is generous for JWKS (typically <10KB).
const maxJWKSResponseSize = 1 << 20

// notBeforeParam is the JWK member carrying a key's activation time in
// seconds since the epoch.
const notBeforeParam = "nbf"

// maxNotBefore is the latest accepted nbf, 9999-12-31T23:59:59Z.
const maxNotBefore = 253402300799

var (
	// ErrEmptyKeySet is returned when a document holds no usable signing key.
	ErrEmptyKeySet = errors.New("key set contains no usable signing keys")

	// ErrNoJWKSURI is returned when neither a URI nor discovery is configured.
	ErrNoJWKSURI = errors.New("no JWKS URI given and discovery is not configured")
)

// Fetcher retrieves a JWKS document over HTTP and turns it into a
// keyset.Snapshot.
type Fetcher struct {
	client  *http.Client
	clock   func() time.Time
	headers map[string]string

	// Discovery settings, used when Fetch is called without a URI.
	issuerURL      *url.URL
	expectedIssuer string

	discoveredMu sync.Mutex
	discovered   string
}

// NewFetcher builds and returns a new *Fetcher.
//
// Example:
//
//	fetcher, err := jwks.NewFetcher(
//	    jwks.WithHTTPClient(myHTTPClient),
//	    jwks.WithHeaders(map[string]string{"Authorization": "Bearer " + token}),
//	)
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		clock:  time.Now,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return f, nil
}

// Fetch downloads and parses the key set at jwksURI. When jwksURI is empty
// the URI is discovered from the issuer configured with WithDiscovery.
//
// The returned snapshot is stamped with the instant parsing completed.
// Every error matches core.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, jwksURI string) (*keyset.Snapshot, error) {
	if jwksURI == "" {
		uri, err := f.DiscoverJWKSURI(ctx)
		if err != nil {
			return nil, fetchError("could not discover JWKS URI", err)
		}
		jwksURI = uri
	}

	set, err := f.fetchSet(ctx, jwksURI)
	if err != nil {
		return nil, fetchError("could not fetch JWKS", err)
	}

	records, err := recordsFromSet(set)
	if err != nil {
		return nil, fetchError("could not read JWKS", err)
	}

	snapshot, err := keyset.NewSnapshot(records, f.clock())
	if err != nil {
		return nil, fetchError("could not read JWKS", err)
	}

	return snapshot, nil
}

func (f *Fetcher) fetchSet(ctx context.Context, jwksURI string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request returned status %d, expected 200", resp.StatusCode)
	}

	set, err := jwk.ParseReader(io.LimitReader(resp.Body, maxJWKSResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return set, nil
}

// DiscoverJWKSURI resolves the JWKS URI of the issuer configured with
// WithDiscovery. The result is cached after the first success.
func (f *Fetcher) DiscoverJWKSURI(ctx context.Context) (string, error) {
	if f.issuerURL == nil {
		return "", ErrNoJWKSURI
	}

	f.discoveredMu.Lock()
	defer f.discoveredMu.Unlock()

	if f.discovered != "" {
		return f.discovered, nil
	}

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, f.client, *f.issuerURL, f.expectedIssuer)
	if err != nil {
		return "", err
	}

	if _, err := url.Parse(endpoints.JWKSURI); err != nil {
		return "", fmt.Errorf("could not parse JWKS URI from well known endpoints: %w", err)
	}

	f.discovered = endpoints.JWKSURI
	return f.discovered, nil
}

// recordsFromSet converts the signing keys of set. Keys without a kid,
// encryption keys and symmetric keys are skipped.
func recordsFromSet(set jwk.Set) ([]keyset.KeyRecord, error) {
	records := make([]keyset.KeyRecord, 0, set.Len())

	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}

		kid := key.KeyID()
		if kid == "" {
			continue
		}
		if use := key.KeyUsage(); use != "" && use != string(jwk.ForSignature) {
			continue
		}
		if key.KeyType() == jwa.OctetSeq {
			continue
		}

		material, err := jwk.PublicRawKeyOf(key)
		if err != nil {
			return nil, fmt.Errorf("key %q: failed to get public key: %w", kid, err)
		}

		notBefore, err := notBeforeOf(key)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", kid, err)
		}

		var alg string
		if a := key.Algorithm(); a != nil {
			alg = a.String()
		}

		records = append(records, keyset.KeyRecord{
			ID:        kid,
			Algorithm: alg,
			Material:  material,
			NotBefore: notBefore,
		})
	}

	if len(records) == 0 {
		return nil, ErrEmptyKeySet
	}

	return records, nil
}

// notBeforeOf reads the optional nbf member of key.
func notBeforeOf(key jwk.Key) (time.Time, error) {
	v, ok := key.Get(notBeforeParam)
	if !ok || v == nil {
		return time.Time{}, nil
	}

	var seconds float64
	switch n := v.(type) {
	case float64:
		seconds = n
	case int64:
		seconds = float64(n)
	case int:
		seconds = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s value %q: %w", notBeforeParam, n, err)
		}
		seconds = f
	case time.Time:
		return n, nil
	default:
		return time.Time{}, fmt.Errorf("invalid %s value of type %T", notBeforeParam, v)
	}

	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds > maxNotBefore {
		return time.Time{}, fmt.Errorf("invalid %s value %v", notBeforeParam, seconds)
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), nil
}

func fetchError(message string, err error) error {
	return core.NewValidationError(core.ErrorCodeFetchFailed, message, err)
}
