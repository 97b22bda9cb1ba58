// Package jwtecho guards Echo routes with a jwkclient validation func.
package jwtecho

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
)

// DefaultClaimsKey is the echo.Context key the claims are stored under.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type echoContextKey struct{}

type config struct {
	errorHandler        func(echo.Context, error) error
	contextKey          string
	tokenExtractor      jwkclient.TokenExtractor
	credentialsOptional bool
}

// New creates an Echo middleware for JWT authentication.
func New(validateToken jwkclient.ValidateToken, opts ...Option) (echo.MiddlewareFunc, error) {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	middlewareOpts := []jwkclient.MiddlewareOption{
		jwkclient.WithCredentialsOptional(cfg.credentialsOptional),
		jwkclient.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			holder, ok := r.Context().Value(echoContextKey{}).(*result)
			if !ok {
				jwkclient.DefaultErrorHandler(w, r, err)
				return
			}
			holder.err = cfg.errorHandler(holder.c, err)
		}),
	}
	if cfg.tokenExtractor != nil {
		middlewareOpts = append(middlewareOpts, jwkclient.WithTokenExtractor(cfg.tokenExtractor))
	}

	middleware, err := jwkclient.NewMiddleware(validateToken, middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			holder := &result{c: c}

			handler := middleware.CheckJWT(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				if claims, ok := r.Context().Value(jwkclient.ContextKey{}).(*core.ValidatedClaims); ok {
					c.Set(cfg.contextKey, claims)
				}
				holder.err = next(c)
			}))

			request := c.Request().WithContext(context.WithValue(c.Request().Context(), echoContextKey{}, holder))
			handler.ServeHTTP(c.Response(), request)

			return holder.err
		}
	}, nil
}

// result carries the echo.Context into the net/http handlers and the error
// they produced back out.
type result struct {
	c   echo.Context
	err error
}

func defaultErrorHandler(c echo.Context, err error) error {
	jwkclient.DefaultErrorHandler(c.Response(), c.Request(), err)
	return nil
}

// GetClaims returns the claims stored under contextKey, or under
// DefaultClaimsKey when contextKey is empty.
func GetClaims(c echo.Context, contextKey string) (*core.ValidatedClaims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims := c.Get(contextKey)
	if claims == nil {
		return nil, ErrMissingClaims
	}

	validatedClaims, ok := claims.(*core.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return validatedClaims, nil
}
