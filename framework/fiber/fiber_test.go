package jwtfiber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
)

const validToken = "valid-token"

func fakeValidateToken(_ context.Context, token string) (any, error) {
	switch token {
	case validToken:
		return &core.ValidatedClaims{
			KeyID:            "kid-1",
			RegisteredClaims: core.RegisteredClaims{Subject: "user-1"},
		}, nil
	case "unknown-kid":
		return nil, core.NewValidationError(core.ErrorCodeKeyNotFound, "no key found for the token", errors.New("kid not in set"))
	default:
		return nil, errors.New("validator exploded")
	}
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name          string
		options       []Option
		target        string
		authorization string
		wantStatus    int
		wantBody      string
		wantChallenge string
	}{
		{
			name:          "it stores the claims in locals and the user context",
			authorization: "Bearer " + validToken,
			wantStatus:    http.StatusOK,
			wantBody:      "user-1/user-1",
		},
		{
			name:          "it rejects a request without a token",
			wantStatus:    http.StatusBadRequest,
			wantBody:      `"error":"invalid_request"`,
			wantChallenge: "Bearer",
		},
		{
			name:          "it rejects an unknown key",
			authorization: "Bearer unknown-kid",
			wantStatus:    http.StatusUnauthorized,
			wantBody:      `"error_code":"jwks_key_not_found"`,
			wantChallenge: `Bearer error="invalid_token", error_description="Unable to verify the access token"`,
		},
		{
			name:          "it treats any validation failure as an invalid token",
			authorization: "Bearer other",
			wantStatus:    http.StatusUnauthorized,
			wantBody:      `"error":"invalid_token"`,
			wantChallenge: `Bearer error="invalid_token", error_description="The access token is invalid"`,
		},
		{
			name:          "it fails on a malformed authorization header",
			authorization: "Basic dXNlcjpwYXNz",
			wantStatus:    http.StatusInternalServerError,
			wantBody:      `"error":"server_error"`,
		},
		{
			name:       "it lets anonymous requests through when credentials are optional",
			options:    []Option{WithCredentialsOptional(true)},
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name:       "it uses the custom token extractor",
			options:    []Option{WithTokenExtractor(QueryTokenExtractor("access_token"))},
			target:     "/private?access_token=" + validToken,
			wantStatus: http.StatusOK,
			wantBody:   "user-1/user-1",
		},
		{
			name: "it uses the custom error handler",
			options: []Option{WithErrorHandler(func(c *fiber.Ctx, err error) error {
				return c.Status(http.StatusForbidden).SendString(core.ErrorCode(err))
			})},
			authorization: "Bearer unknown-kid",
			wantStatus:    http.StatusForbidden,
			wantBody:      "jwks_key_not_found",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			auth, err := New(fakeValidateToken, testCase.options...)
			require.NoError(t, err)

			app := fiber.New()
			app.Get("/private", auth, func(c *fiber.Ctx) error {
				claims, err := GetClaims(c, "")
				if err != nil {
					return c.SendString("anonymous")
				}
				fromContext, err := core.GetClaims(c.UserContext())
				if err != nil {
					return err
				}
				return c.SendString(claims.RegisteredClaims.Subject + "/" + fromContext.RegisteredClaims.Subject)
			})

			target := testCase.target
			if target == "" {
				target = "/private"
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if testCase.authorization != "" {
				req.Header.Set(fiber.HeaderAuthorization, testCase.authorization)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, testCase.wantStatus, resp.StatusCode)
			assert.Contains(t, string(body), testCase.wantBody)
			assert.Equal(t, testCase.wantChallenge, resp.Header.Get(fiber.HeaderWWWAuthenticate))
		})
	}

	t.Run("it rejects a nil validation func", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, jwkclient.ErrValidateTokenNil)
	})
}

func TestGetClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := GetClaims(c, "")
		assert.ErrorIs(t, err, ErrMissingClaims)

		c.Locals("claims", "not claims")
		_, err = GetClaims(c, "claims")
		assert.ErrorIs(t, err, ErrInvalidClaims)

		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
