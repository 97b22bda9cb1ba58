package jwkclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/auth0/go-jwkclient/core"
	"github.com/auth0/go-jwkclient/jwks"
	"github.com/auth0/go-jwkclient/keyset"
	"github.com/auth0/go-jwkclient/policy"
	"github.com/auth0/go-jwkclient/validate/jwxv2"
)

// Fetch triggers, used as the trigger label of fetch metrics.
const (
	triggerProactive = "proactive"
	triggerReactive  = "reactive"
	triggerManual    = "manual"
)

// KeyFetcher retrieves the key set at jwksURI. The returned snapshot must be
// stamped with the instant the fetch completed.
type KeyFetcher interface {
	Fetch(ctx context.Context, jwksURI string) (*keyset.Snapshot, error)
}

// HeaderReader extracts the key id and algorithm of a token without
// verifying it. A failure must match core.ErrTokenFormat.
type HeaderReader interface {
	ReadHeader(token string) (core.TokenHeader, error)
}

// Verifier checks a token's signature against key and its exp, nbf, iss
// and aud claims.
type Verifier interface {
	Verify(ctx context.Context, token string, key keyset.KeyRecord, issuer, audience string) (*core.ValidatedClaims, error)
}

// Client validates tokens against a cached remote JWK Set.
//
// The cached snapshot is refreshed proactively once it is older than the
// auto refresh interval, and reactively when a token fails lookup or
// verification. Reactive refreshes are rate-limited across all callers and
// each ValidateToken call retries at most once. A Client is safe for
// concurrent use.
type Client struct {
	jwksURI  string
	issuer   string
	audience string

	fetcher      KeyFetcher
	headerReader HeaderReader
	verifier     Verifier

	store     *keyset.Store
	retryGate policy.RetryGate

	autoRefreshInterval atomic.Int64
	retryRateLimit      atomic.Int64

	clock        func() time.Time
	httpClient   *http.Client
	fetchTimeout time.Duration

	tokenCache TokenCache

	logger  Logger
	metrics Metrics
	tracer  Tracer
}

// New builds a Client for the key set at jwksURI. Tokens are accepted only
// when issued by issuer for audience.
//
// Example:
//
//	client, err := jwkclient.New(
//	    "https://example.eu.auth0.com/.well-known/jwks.json",
//	    "https://example.eu.auth0.com/",
//	    "https://api.example.com",
//	    jwkclient.WithAutoRefreshInterval(30*time.Minute),
//	)
//	if err != nil {
//	    log.Fatalf("failed to set up the jwks client: %v", err)
//	}
//
//	claims, err := client.ValidateToken(ctx, token)
func New(jwksURI, issuer, audience string, opts ...Option) (*Client, error) {
	if jwksURI == "" {
		return nil, configError(ErrJWKSURIEmpty)
	}
	if issuer == "" {
		return nil, configError(ErrIssuerEmpty)
	}
	if audience == "" {
		return nil, configError(ErrAudienceEmpty)
	}

	c := &Client{
		jwksURI:  jwksURI,
		issuer:   issuer,
		audience: audience,
		clock:    time.Now,
		logger:   NoopLogger{},
		metrics:  &NoopMetrics{},
		tracer:   &NoopTracer{},
	}
	c.autoRefreshInterval.Store(int64(policy.DefaultAutoRefreshInterval))
	c.retryRateLimit.Store(int64(policy.DefaultRetryRateLimit))

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, configError(fmt.Errorf("invalid option: %w", err))
		}
	}

	if err := c.applyDefaults(); err != nil {
		return nil, configError(err)
	}

	c.store = keyset.NewStore(c.fetchTimeout)

	return c, nil
}

// applyDefaults builds the collaborators not set by options. They share
// the client's clock.
func (c *Client) applyDefaults() error {
	if c.fetcher == nil {
		fetcherOpts := []jwks.Option{jwks.WithClock(c.clock)}
		if c.httpClient != nil {
			fetcherOpts = append(fetcherOpts, jwks.WithHTTPClient(c.httpClient))
		}

		fetcher, err := jwks.NewFetcher(fetcherOpts...)
		if err != nil {
			return fmt.Errorf("failed to create fetcher: %w", err)
		}
		c.fetcher = fetcher
	}

	if c.headerReader == nil || c.verifier == nil {
		v, err := jwxv2.New(jwxv2.WithClock(c.clock))
		if err != nil {
			return fmt.Errorf("failed to create validator: %w", err)
		}
		if c.headerReader == nil {
			c.headerReader = v
		}
		if c.verifier == nil {
			c.verifier = v
		}
	}

	return nil
}

// SetAutoRefreshInterval sets how old the cached snapshot may get before a
// validation refreshes it first.
func (c *Client) SetAutoRefreshInterval(interval time.Duration) error {
	if interval < 0 {
		return configError(ErrNegativeDuration)
	}
	c.autoRefreshInterval.Store(int64(interval))
	return nil
}

// SetRetryRateLimit sets the minimum spacing between two reactive refreshes.
func (c *Client) SetRetryRateLimit(rateLimit time.Duration) error {
	if rateLimit < 0 {
		return configError(ErrNegativeDuration)
	}
	c.retryRateLimit.Store(int64(rateLimit))
	return nil
}

// AutoRefreshInterval returns the current auto refresh interval.
func (c *Client) AutoRefreshInterval() time.Duration {
	return time.Duration(c.autoRefreshInterval.Load())
}

// RetryRateLimit returns the current retry rate limit.
func (c *Client) RetryRateLimit() time.Duration {
	return time.Duration(c.retryRateLimit.Load())
}

// Snapshot returns the cached key set. It never blocks on a fetch.
func (c *Client) Snapshot() *keyset.Snapshot {
	return c.store.Current()
}

// LastRetryAt returns when a reactive refresh was last allowed, or zero.
func (c *Client) LastRetryAt() time.Time {
	return c.retryGate.LastRetryAt()
}

// Fetches returns how many fetches the client has started.
func (c *Client) Fetches() int64 {
	return c.store.Fetches()
}

// Refresh fetches the key set now, for example to warm the cache at
// startup. Unlike the refreshes ValidateToken performs, its error is
// returned to the caller.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx, triggerManual)
	return err
}

// ValidateToken verifies token and returns its claims.
//
// The returned error is always a validation failure: fetch errors are
// logged and never returned. It matches core.ErrTokenFormat,
// core.ErrKeyNotFound, core.ErrSignatureInvalid or core.ErrClaimsInvalid.
func (c *Client) ValidateToken(ctx context.Context, token string) (*core.ValidatedClaims, error) {
	now := c.clock()

	ctx, span := c.tracer.StartSpan(ctx, SpanValidateToken)
	defer span.Finish()

	if policy.IsProactiveRefreshDue(c.store.Current().FetchedAt(), now, c.AutoRefreshInterval()) {
		c.logger.Debugf("key set is stale, refreshing before validation")
		if _, err := c.refresh(ctx, triggerProactive); err != nil {
			c.logger.Warnf("proactive JWKS refresh failed, using cached key set: %v", err)
		}
	}

	if claims, ok := c.cachedClaims(token, now); ok {
		span.SetTag("cached", true)
		return c.succeed(span, claims, false), nil
	}

	claims, err := c.lookupAndVerify(ctx, c.store.Current(), token, now)
	if err == nil {
		c.rememberClaims(token, claims, now)
		return c.succeed(span, claims, false), nil
	}

	if !core.IsRetryable(err) {
		return nil, c.fail(span, err)
	}

	if !c.retryGate.TryAcquire(now, c.RetryRateLimit()) {
		c.logger.Debugf("reactive JWKS refresh rate limited: %v", err)
		c.metrics.IncCounter(MetricRetryDeniedTotal, nil)
		return nil, c.fail(span, err)
	}

	c.logger.Debugf("token failed validation, refreshing key set: %v", err)
	snapshot, fetchErr := c.refresh(ctx, triggerReactive)
	if fetchErr != nil {
		c.logger.Warnf("reactive JWKS refresh failed: %v", fetchErr)
		return nil, c.fail(span, err)
	}

	claims, err = c.lookupAndVerify(ctx, snapshot, token, now)
	if err != nil {
		return nil, c.fail(span, err)
	}

	c.rememberClaims(token, claims, now)
	return c.succeed(span, claims, true), nil
}

// ValidateTokenAny is ValidateToken with the signature of the middleware's
// ValidateToken func.
func (c *Client) ValidateTokenAny(ctx context.Context, token string) (any, error) {
	claims, err := c.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Client) lookupAndVerify(
	ctx context.Context,
	snapshot *keyset.Snapshot,
	token string,
	now time.Time,
) (*core.ValidatedClaims, error) {
	header, err := c.headerReader.ReadHeader(token)
	if err != nil {
		if !errors.Is(err, core.ErrTokenFormat) {
			err = core.NewValidationError(core.ErrorCodeTokenMalformed, "could not parse the token", err)
		}
		return nil, err
	}

	record, ok := snapshot.Lookup(header.KeyID)
	if !ok {
		return nil, core.NewValidationError(
			core.ErrorCodeKeyNotFound,
			"no key found for the token",
			fmt.Errorf("kid %q is not in the key set", header.KeyID),
		)
	}
	if !record.ActiveAt(now) {
		return nil, core.NewValidationError(
			core.ErrorCodeKeyNotFound,
			"no key found for the token",
			fmt.Errorf("kid %q is not active until %s", header.KeyID, record.NotBefore.Format(time.RFC3339)),
		)
	}

	return c.verifier.Verify(ctx, token, record, c.issuer, c.audience)
}

// refresh fetches through the store. Concurrent callers share one fetch,
// and the metrics and span of that fetch are recorded once.
func (c *Client) refresh(ctx context.Context, trigger string) (*keyset.Snapshot, error) {
	return c.store.Refresh(ctx, func(fetchCtx context.Context) (*keyset.Snapshot, error) {
		fetchCtx, span := c.tracer.StartSpan(fetchCtx, SpanFetch)
		defer span.Finish()
		span.SetTag("trigger", trigger)

		start := time.Now()
		snapshot, err := c.fetcher.Fetch(fetchCtx, c.jwksURI)
		c.metrics.ObserveHistogram(MetricFetchDuration, time.Since(start).Seconds(), map[string]string{"trigger": trigger})

		if err != nil {
			span.SetError(err)
			c.metrics.IncCounter(MetricFetchTotal, map[string]string{"trigger": trigger, "outcome": "failure"})
			return nil, err
		}

		if snapshot != nil {
			span.SetTag("keys", snapshot.Len())
			c.metrics.SetGauge(MetricKeys, float64(snapshot.Len()), nil)
			c.logger.Infof("fetched JWKS with %d keys (%s)", snapshot.Len(), trigger)
		}
		c.metrics.IncCounter(MetricFetchTotal, map[string]string{"trigger": trigger, "outcome": "success"})

		return snapshot, nil
	})
}

func (c *Client) succeed(span Span, claims *core.ValidatedClaims, retried bool) *core.ValidatedClaims {
	span.SetTag("kid", claims.KeyID)
	span.SetTag("retried", retried)
	c.metrics.IncCounter(MetricValidationTotal, map[string]string{"outcome": "success", "code": ""})
	return claims
}

func (c *Client) fail(span Span, err error) error {
	code := core.ErrorCode(err)
	span.SetTag("error_code", code)
	span.SetError(err)
	c.metrics.IncCounter(MetricValidationTotal, map[string]string{"outcome": "failure", "code": code})
	return err
}
