package jwkclient

import (
	"context"
	"fmt"
	"net/http"
)

// ContextKey is the key the Middleware stores the validated token under in
// the request context.
type ContextKey struct{}

// ValidateToken takes in a string JWT and makes sure it is valid and
// returns the valid token. If it is not valid it will return nil and
// an error message describing why validation failed.
// (*Client).ValidateTokenAny satisfies it.
type ValidateToken func(context.Context, string) (any, error)

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from JWT validation.
type ExclusionURLHandler func(r *http.Request) bool

// Middleware guards an http.Handler with token validation.
type Middleware struct {
	validateToken       ValidateToken
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	credentialsOptional bool
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
}

// MiddlewareOption configures the Middleware.
// Returns error for validation failures.
type MiddlewareOption func(*Middleware) error

// NewMiddleware constructs a new Middleware instance with the supplied options.
//
// Example:
//
//	client, err := jwkclient.New(jwksURI, issuer, audience)
//	if err != nil {
//	    log.Fatalf("failed to set up the jwks client: %v", err)
//	}
//
//	middleware, err := jwkclient.NewMiddleware(client.ValidateTokenAny)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//
//	http.ListenAndServe(":3000", middleware.CheckJWT(handler))
func NewMiddleware(validateToken ValidateToken, opts ...MiddlewareOption) (*Middleware, error) {
	if validateToken == nil {
		return nil, ErrValidateTokenNil
	}

	m := &Middleware{
		validateToken:     validateToken,
		errorHandler:      DefaultErrorHandler,
		tokenExtractor:    AuthHeaderTokenExtractor,
		validateOnOptions: true,
		logger:            NoopLogger{},
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return m, nil
}

// GetClaims retrieves the validated token from the context.
//
// Example:
//
//	claims, err := jwkclient.GetClaims[*core.ValidatedClaims](r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.RegisteredClaims.Subject)
func GetClaims[T any](ctx context.Context) (T, error) {
	claims, ok := ctx.Value(ContextKey{}).(T)
	if !ok {
		var zero T
		return zero, ErrClaimsNotFound
	}
	return claims, nil
}

// HasClaims checks if a validated token exists in the context.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(ContextKey{}) != nil
}

// CheckJWT is the main Middleware function which performs the main logic. It
// is passed a http.Handler which will be called if the JWT passes validation.
func (m *Middleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			m.logger.Debugf("skipping JWT validation for excluded URL %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			// This is not ErrJWTMissing because an error here means that the
			// tokenExtractor had an error and _not_ that the token was missing.
			m.logger.Errorf("failed to extract token from %s %s: %v", r.Method, r.URL.Path, err)
			m.errorHandler(w, r, fmt.Errorf("error extracting token: %w", err))
			return
		}

		if token == "" {
			if m.credentialsOptional {
				next.ServeHTTP(w, r)
				return
			}

			m.errorHandler(w, r, ErrJWTMissing)
			return
		}

		validToken, err := m.validateToken(r.Context(), token)
		if err != nil {
			m.logger.Warnf("JWT validation failed for %s %s: %v", r.Method, r.URL.Path, err)
			m.errorHandler(w, r, invalidError{details: err})
			return
		}

		// No err means we have a valid token, so set
		// it into the context and continue onto next.
		r = r.Clone(context.WithValue(r.Context(), ContextKey{}, validToken))
		next.ServeHTTP(w, r)
	})
}

// WithCredentialsOptional sets whether credentials are optional.
// If set to true, an empty token will be considered valid.
//
// Default: false (credentials required)
func WithCredentialsOptional(value bool) MiddlewareOption {
	return func(m *Middleware) error {
		m.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests should have their JWT validated.
//
// Default: true (OPTIONS requests are validated)
func WithValidateOnOptions(value bool) MiddlewareOption {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when errors occur during JWT validation.
// See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the JWT from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) MiddlewareOption {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithExclusionURLs configures paths or full URLs that skip validation.
func WithExclusionURLs(exclusions ...string) MiddlewareOption {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}
		excluded := make(map[string]bool, len(exclusions))
		for _, e := range exclusions {
			excluded[e] = true
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			return excluded[r.URL.Path] || excluded[r.URL.String()]
		}
		return nil
	}
}

// WithMiddlewareLogger sets the logger for rejected requests.
func WithMiddlewareLogger(logger Logger) MiddlewareOption {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}
