package jwtgin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
)

const validToken = "valid-token"

func fakeValidateToken(_ context.Context, token string) (any, error) {
	if token != validToken {
		return nil, core.NewValidationError(core.ErrorCodeTokenExpired, "token expired", errors.New("exp not satisfied"))
	}
	return &core.ValidatedClaims{
		KeyID:            "kid-1",
		RegisteredClaims: core.RegisteredClaims{Subject: "user-1"},
	}, nil
}

func setupRouter(t *testing.T, opts ...Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth, err := New(fakeValidateToken, opts...)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/private", auth, func(c *gin.Context) {
		key := c.GetHeader("X-Claims-Key")
		claims, err := GetClaims(c, key)
		if err != nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, claims.RegisteredClaims.Subject)
	})
	return router
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name          string
		options       []Option
		query         string
		authorization string
		claimsKey     string
		wantStatus    int
		wantBody      string
	}{
		{
			name:          "it stores the claims for the next handler",
			authorization: "Bearer " + validToken,
			wantStatus:    http.StatusOK,
			wantBody:      "user-1",
		},
		{
			name:          "it stores the claims under a custom key",
			options:       []Option{WithContextKey("claims")},
			authorization: "Bearer " + validToken,
			claimsKey:     "claims",
			wantStatus:    http.StatusOK,
			wantBody:      "user-1",
		},
		{
			name:       "it rejects a request without a token",
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"invalid_request"`,
		},
		{
			name:          "it rejects an invalid token",
			authorization: "Bearer expired",
			wantStatus:    http.StatusUnauthorized,
			wantBody:      `"error_code":"token_expired"`,
		},
		{
			name:       "it lets anonymous requests through when credentials are optional",
			options:    []Option{WithCredentialsOptional(true)},
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name: "it uses the custom error handler",
			options: []Option{WithErrorHandler(func(c *gin.Context, err error) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"reason": core.ErrorCode(err)})
			})},
			authorization: "Bearer expired",
			wantStatus:    http.StatusForbidden,
			wantBody:      `{"reason":"token_expired"}`,
		},
		{
			name: "it uses the custom token extractor",
			options: []Option{WithTokenExtractor(
				jwkclient.ParameterTokenExtractor("token"),
			)},
			query:      "?token=" + validToken,
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			router := setupRouter(t, testCase.options...)

			req := httptest.NewRequest(http.MethodGet, "/private"+testCase.query, nil)
			if testCase.authorization != "" {
				req.Header.Set("Authorization", testCase.authorization)
			}
			if testCase.claimsKey != "" {
				req.Header.Set("X-Claims-Key", testCase.claimsKey)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, testCase.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), testCase.wantBody)
		})
	}

	t.Run("it rejects a nil validation func", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, jwkclient.ErrValidateTokenNil)
	})
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("it reports missing claims", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, err := GetClaims(c, "")
		assert.ErrorIs(t, err, ErrMissingClaims)
	})

	t.Run("it reports claims of the wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(DefaultClaimsKey, "not claims")
		_, err := GetClaims(c, "")
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}
