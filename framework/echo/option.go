package jwtecho

import (
	"github.com/labstack/echo/v4"

	jwkclient "github.com/auth0/go-jwkclient"
)

// Option defines a functional option for configuring the middleware
type Option func(*config)

// WithErrorHandler sets a custom error handler. A returned error is passed
// on to Echo's HTTPErrorHandler.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(cfg *config) {
		if handler != nil {
			cfg.errorHandler = handler
		}
	}
}

// WithContextKey sets the echo.Context key the claims are stored under.
func WithContextKey(key string) Option {
	return func(cfg *config) {
		if key != "" {
			cfg.contextKey = key
		}
	}
}

// WithTokenExtractor sets a custom token extractor
func WithTokenExtractor(extractor jwkclient.TokenExtractor) Option {
	return func(cfg *config) {
		cfg.tokenExtractor = extractor
	}
}

// WithCredentialsOptional lets requests without a token through.
func WithCredentialsOptional(value bool) Option {
	return func(cfg *config) {
		cfg.credentialsOptional = value
	}
}
