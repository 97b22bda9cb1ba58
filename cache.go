package jwkclient

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/auth0/go-jwkclient/core"
)

// TokenCache remembers the claims of verified tokens so repeated
// validations of the same token skip key lookup and signature checks.
// Keys are SHA-256 digests of the raw token and the issuer, audience and
// JWKS URI of the client that verified it.
//
// A cached token keeps validating until it expires, even if its key has
// since left the key set.
type TokenCache interface {
	Get(key string) (*core.ValidatedClaims, bool)
	Set(key string, claims *core.ValidatedClaims, ttl time.Duration)
}

// RistrettoTokenCache is a TokenCache on top of github.com/dgraph-io/ristretto.
type RistrettoTokenCache struct {
	cache  *ristretto.Cache
	maxTTL time.Duration
}

// NewRistrettoTokenCache builds a cache holding up to maxTokens entries, none
// of them longer than maxTTL.
func NewRistrettoTokenCache(maxTokens int64, maxTTL time.Duration) (*RistrettoTokenCache, error) {
	if maxTokens <= 0 {
		return nil, errors.New("max tokens must be positive")
	}
	if maxTTL <= 0 {
		return nil, errors.New("max TTL must be positive")
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxTokens * 10,
		MaxCost:     maxTokens,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	return &RistrettoTokenCache{cache: cache, maxTTL: maxTTL}, nil
}

// Get returns the claims cached under key.
func (r *RistrettoTokenCache) Get(key string) (*core.ValidatedClaims, bool) {
	value, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*core.ValidatedClaims)
	return claims, ok
}

// Set caches claims for ttl, capped at the cache's max TTL.
func (r *RistrettoTokenCache) Set(key string, claims *core.ValidatedClaims, ttl time.Duration) {
	ttl = min(ttl, r.maxTTL)
	if ttl <= 0 {
		return
	}
	r.cache.SetWithTTL(key, claims, 1, ttl)
	// Sets are buffered; make the entry visible to the next Get.
	r.cache.Wait()
}

// Close stops the cache's background goroutines.
func (r *RistrettoTokenCache) Close() {
	r.cache.Close()
}

// cacheKey digests token together with the client's binding, so a cache
// shared by clients for different issuers, audiences or key sets never
// answers one client with claims verified by another.
func (c *Client) cacheKey(token string) string {
	h := sha256.New()
	for _, part := range []string{c.issuer, c.audience, c.jwksURI, token} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// cachedClaims returns the claims cached for token if they have not expired
// at now.
func (c *Client) cachedClaims(token string, now time.Time) (*core.ValidatedClaims, bool) {
	if c.tokenCache == nil {
		return nil, false
	}
	claims, ok := c.tokenCache.Get(c.cacheKey(token))
	if !ok || claims == nil || now.Unix() >= claims.RegisteredClaims.Expiry {
		return nil, false
	}
	return claims, true
}

// rememberClaims caches claims until the token expires. Tokens without an
// exp claim are not cached.
func (c *Client) rememberClaims(token string, claims *core.ValidatedClaims, now time.Time) {
	if c.tokenCache == nil || claims.RegisteredClaims.Expiry == 0 {
		return
	}
	ttl := time.Unix(claims.RegisteredClaims.Expiry, 0).Sub(now)
	if ttl <= 0 {
		return
	}
	c.tokenCache.Set(c.cacheKey(token), claims, ttl)
}
