// Package jwtgin guards Gin routes with a jwkclient validation func.
package jwtgin

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
)

// DefaultClaimsKey is the gin.Context key the claims are stored under.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type ginContextKey struct{}

type config struct {
	errorHandler        func(*gin.Context, error)
	contextKey          string
	tokenExtractor      jwkclient.TokenExtractor
	credentialsOptional bool
}

// New creates a Gin middleware for JWT authentication. validateToken is
// typically (*jwkclient.Client).ValidateTokenAny.
//
//	r := gin.Default()
//	auth, err := jwtgin.New(client.ValidateTokenAny)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.GET("/api/private", auth, handler)
func New(validateToken jwkclient.ValidateToken, opts ...Option) (gin.HandlerFunc, error) {
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
			c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
			if !ok {
				jwkclient.DefaultErrorHandler(w, r, err)
				return
			}
			cfg.errorHandler(c, err)
		}),
	}
	if cfg.tokenExtractor != nil {
		middlewareOpts = append(middlewareOpts, jwkclient.WithTokenExtractor(cfg.tokenExtractor))
	}

	middleware, err := jwkclient.NewMiddleware(validateToken, middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r

			if claims, ok := r.Context().Value(jwkclient.ContextKey{}).(*core.ValidatedClaims); ok {
				c.Set(cfg.contextKey, claims)
			}
		})

		request := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		middleware.CheckJWT(next).ServeHTTP(c.Writer, request)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}, nil
}

func defaultErrorHandler(c *gin.Context, err error) {
	jwkclient.DefaultErrorHandler(c.Writer, c.Request, err)
	c.Abort()
}

// GetClaims returns the claims stored under contextKey, or under
// DefaultClaimsKey when contextKey is empty.
func GetClaims(c *gin.Context, contextKey string) (*core.ValidatedClaims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	validatedClaims, ok := claims.(*core.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return validatedClaims, nil
}
