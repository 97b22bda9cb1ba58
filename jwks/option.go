package jwks

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Option is how options for the Fetcher are set up.
type Option func(*Fetcher) error

// WithHTTPClient sets a custom HTTP client for the Fetcher.
// If not specified, a default client with 30s timeout is used.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) error {
		if c == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		f.client = c
		return nil
	}
}

// WithClock sets the clock used to stamp fetched snapshots.
// The client passes its own clock here so that staleness checks and
// fetch timestamps come from the same source.
func WithClock(clock func() time.Time) Option {
	return func(f *Fetcher) error {
		if clock == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		f.clock = clock
		return nil
	}
}

// WithHeaders sets static headers sent with every JWKS request, for key
// sets that sit behind authentication.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) error {
		copied := make(map[string]string, len(headers))
		for k, v := range headers {
			if k == "" {
				return fmt.Errorf("header name cannot be empty")
			}
			copied[k] = v
		}
		f.headers = copied
		return nil
	}
}

// WithDiscovery enables OIDC discovery. When Fetch is called with an empty
// URI the JWKS URI is read from issuerURL's
// .well-known/openid-configuration, whose issuer must match issuerURL.
func WithDiscovery(issuerURL *url.URL) Option {
	return func(f *Fetcher) error {
		if issuerURL == nil {
			return fmt.Errorf("issuer URL cannot be nil")
		}
		f.issuerURL = issuerURL
		f.expectedIssuer = issuerURL.String()
		return nil
	}
}
