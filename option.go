package jwkclient

import (
	"net/http"
	"time"
)

// Option configures the Client.
// Returns error for validation failures.
type Option func(*Client) error

// WithAutoRefreshInterval sets how old the cached key set may get before a
// validation refreshes it first.
//
// Default: 1 hour
func WithAutoRefreshInterval(interval time.Duration) Option {
	return func(c *Client) error {
		if interval < 0 {
			return ErrNegativeDuration
		}
		c.autoRefreshInterval.Store(int64(interval))
		return nil
	}
}

// WithRetryRateLimit sets the minimum spacing between two reactive
// refreshes, across all callers of the client.
//
// Default: 5 minutes
func WithRetryRateLimit(rateLimit time.Duration) Option {
	return func(c *Client) error {
		if rateLimit < 0 {
			return ErrNegativeDuration
		}
		c.retryRateLimit.Store(int64(rateLimit))
		return nil
	}
}

// WithFetchTimeout bounds a single fetch. The fetch runs detached from the
// context of the validation that started it, so this is the only limit on
// its duration.
//
// Default: 30 seconds
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return ErrFetchTimeoutInvalid
		}
		c.fetchTimeout = timeout
		return nil
	}
}

// WithFetcher replaces the HTTP key set fetcher.
//
// Default: a *jwks.Fetcher sharing the client's clock and HTTP client
func WithFetcher(fetcher KeyFetcher) Option {
	return func(c *Client) error {
		if fetcher == nil {
			return ErrFetcherNil
		}
		c.fetcher = fetcher
		return nil
	}
}

// WithHeaderReader replaces the token header reader.
//
// Default: a *jwxv2.Validator
func WithHeaderReader(reader HeaderReader) Option {
	return func(c *Client) error {
		if reader == nil {
			return ErrHeaderReaderNil
		}
		c.headerReader = reader
		return nil
	}
}

// WithVerifier replaces the signature and claims verifier.
//
// Default: a *jwxv2.Validator
func WithVerifier(verifier Verifier) Option {
	return func(c *Client) error {
		if verifier == nil {
			return ErrVerifierNil
		}
		c.verifier = verifier
		return nil
	}
}

// WithClock sets the clock every staleness, rate limit and key activation
// decision is made against. The default fetcher and verifier use it too.
//
// Default: time.Now
func WithClock(clock func() time.Time) Option {
	return func(c *Client) error {
		if clock == nil {
			return ErrClockNil
		}
		c.clock = clock
		return nil
	}
}

// WithHTTPClient sets the HTTP client of the default fetcher. It has no
// effect together with WithFetcher.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return ErrHTTPClientNil
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithLogger sets the logger for refresh events.
//
// Example:
//
//	client, err := jwkclient.New(jwksURI, issuer, audience,
//	    jwkclient.WithLogger(jwkclient.NewZapLogger(zap.NewExample().Sugar())),
//	)
func WithLogger(logger Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return ErrLoggerNil
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets where fetch and validation metrics are recorded.
func WithMetrics(metrics Metrics) Option {
	return func(c *Client) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		c.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer for validation and fetch spans.
func WithTracer(tracer Tracer) Option {
	return func(c *Client) error {
		if tracer == nil {
			return ErrTracerNil
		}
		c.tracer = tracer
		return nil
	}
}

// WithTokenCache caches the claims of verified tokens until they expire.
// See TokenCache for the trade-off.
//
//	cache, err := jwkclient.NewRistrettoTokenCache(10_000, 5*time.Minute)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := jwkclient.New(jwksURI, issuer, audience, jwkclient.WithTokenCache(cache))
func WithTokenCache(cache TokenCache) Option {
	return func(c *Client) error {
		if cache == nil {
			return ErrTokenCacheNil
		}
		c.tokenCache = cache
		return nil
	}
}
