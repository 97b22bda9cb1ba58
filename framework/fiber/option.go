package jwtfiber

import "github.com/gofiber/fiber/v2"

// Option defines a functional option for configuring the handler
type Option func(*config)

// WithErrorHandler sets a custom error handler. Its return value is
// returned from the handler.
func WithErrorHandler(handler func(*fiber.Ctx, error) error) Option {
	return func(cfg *config) {
		if handler != nil {
			cfg.errorHandler = handler
		}
	}
}

// WithContextKey sets the c.Locals key the claims are stored under.
func WithContextKey(key string) Option {
	return func(cfg *config) {
		if key != "" {
			cfg.contextKey = key
		}
	}
}

// WithTokenExtractor sets a custom token extractor
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(cfg *config) {
		if extractor != nil {
			cfg.tokenExtractor = extractor
		}
	}
}

// WithCredentialsOptional lets requests without a token through.
func WithCredentialsOptional(value bool) Option {
	return func(cfg *config) {
		cfg.credentialsOptional = value
	}
}
