// Package jwtfiber guards Fiber routes with a jwkclient validation func.
//
// Fiber runs on fasthttp, so unlike the Gin and Echo adapters this one does
// not wrap the net/http Middleware. It follows the same rules: a missing
// token is a 400, an invalid one a 401 with a WWW-Authenticate challenge.
//
// On success the claims are stored in c.Locals under DefaultClaimsKey and,
// when they are *core.ValidatedClaims, in c.UserContext() via core.SetClaims.
package jwtfiber

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
)

// DefaultClaimsKey is the c.Locals key the claims are stored under.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

// TokenExtractor returns the token of a request, or an empty string when it
// carries none.
type TokenExtractor func(c *fiber.Ctx) (string, error)

// AuthHeaderTokenExtractor reads an "Authorization: Bearer" header.
func AuthHeaderTokenExtractor(c *fiber.Ctx) (string, error) {
	return jwkclient.BearerToken(c.Get(fiber.HeaderAuthorization))
}

// QueryTokenExtractor reads the token from the named query parameter.
func QueryTokenExtractor(param string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		return c.Query(param), nil
	}
}

type config struct {
	errorHandler        func(*fiber.Ctx, error) error
	contextKey          string
	tokenExtractor      TokenExtractor
	credentialsOptional bool
}

// New creates a Fiber handler for JWT authentication.
//
//	app := fiber.New()
//	auth, err := jwtfiber.New(client.ValidateTokenAny)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Get("/api/private", auth, handler)
func New(validateToken jwkclient.ValidateToken, opts ...Option) (fiber.Handler, error) {
	if validateToken == nil {
		return nil, jwkclient.ErrValidateTokenNil
	}

	cfg := &config{
		errorHandler:   DefaultErrorHandler,
		contextKey:     DefaultClaimsKey,
		tokenExtractor: AuthHeaderTokenExtractor,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		token, err := cfg.tokenExtractor(c)
		if err != nil {
			return cfg.errorHandler(c, fmt.Errorf("error extracting token: %w", err))
		}

		if token == "" {
			if cfg.credentialsOptional {
				return c.Next()
			}
			return cfg.errorHandler(c, jwkclient.ErrJWTMissing)
		}

		validToken, err := validateToken(c.UserContext(), token)
		if err != nil {
			return cfg.errorHandler(c, fmt.Errorf("%w: %w", jwkclient.ErrJWTInvalid, err))
		}

		c.Locals(cfg.contextKey, validToken)
		if claims, ok := validToken.(*core.ValidatedClaims); ok {
			c.SetUserContext(core.SetClaims(c.UserContext(), claims))
		}

		return c.Next()
	}, nil
}

// DefaultErrorHandler writes the same responses as
// jwkclient.DefaultErrorHandler.
func DefaultErrorHandler(c *fiber.Ctx, err error) error {
	status, challenge, response := jwkclient.ResponseFor(err)
	if challenge != "" {
		c.Set(fiber.HeaderWWWAuthenticate, challenge)
	}
	return c.Status(status).JSON(response)
}

// GetClaims returns the claims stored under contextKey, or under
// DefaultClaimsKey when contextKey is empty.
func GetClaims(c *fiber.Ctx, contextKey string) (*core.ValidatedClaims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	value := c.Locals(contextKey)
	if value == nil {
		return nil, ErrMissingClaims
	}

	claims, ok := value.(*core.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
