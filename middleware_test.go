package jwkclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-jwkclient/core"
	"github.com/auth0/go-jwkclient/internal/testkeys"
)

func Test_CheckJWT(t *testing.T) {
	clock := newManualClock()
	key := testkeys.NewRSA(t, "k1")
	client := newTestClient(t, clock, &fakeFetcher{keys: []*testkeys.Key{key}})

	validToken := key.Sign(t, longLivedClaims(clock.Now()))
	unknownKeyToken := testkeys.NewRSA(t, "k2").Sign(t, longLivedClaims(clock.Now()))

	wantClaims := &core.ValidatedClaims{
		KeyID: "k1",
		RegisteredClaims: core.RegisteredClaims{
			Issuer:   testkeys.Issuer,
			Subject:  testkeys.Subject,
			Audience: []string{testkeys.Audience},
			Expiry:   clock.Now().Add(30 * 24 * time.Hour).Unix(),
			IssuedAt: clock.Now().Unix(),
		},
	}

	testCases := []struct {
		name           string
		validateToken  ValidateToken
		options        []MiddlewareOption
		method         string
		path           string
		authorization  string
		wantClaims     interface{}
		wantStatusCode int
		wantErrorCode  string
	}{
		{
			name:           "it can successfully validate a token",
			authorization:  "Bearer " + validToken,
			wantClaims:     wantClaims,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "it validates on OPTIONS by default",
			method:         http.MethodOptions,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "it skips validation on OPTIONS if validateOnOptions is set to false",
			options:        []MiddlewareOption{WithValidateOnOptions(false)},
			method:         http.MethodOptions,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "it fails with a malformed authorization header",
			authorization:  "Basic dXNlcjpwYXNz",
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "it fails when the token is missing",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "it rejects a token signed by an unknown key",
			authorization:  "Bearer " + unknownKeyToken,
			wantStatusCode: http.StatusUnauthorized,
			wantErrorCode:  core.ErrorCodeKeyNotFound,
		},
		{
			name:           "it rejects a malformed token",
			authorization:  "Bearer a.b.c",
			wantStatusCode: http.StatusUnauthorized,
			wantErrorCode:  core.ErrorCodeTokenMalformed,
		},
		{
			name:           "it continues without claims when credentials are optional",
			options:        []MiddlewareOption{WithCredentialsOptional(true)},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "it uses a custom token extractor",
			options: []MiddlewareOption{
				WithTokenExtractor(ParameterTokenExtractor("access_token")),
			},
			path:           "/?access_token=" + validToken,
			wantClaims:     wantClaims,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "it skips excluded paths",
			options:        []MiddlewareOption{WithExclusionURLs("/public", "/health")},
			path:           "/health",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "it guards paths that are not excluded",
			options:        []MiddlewareOption{WithExclusionURLs("/public", "/health")},
			path:           "/secure",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "it calls the custom error handler",
			options: []MiddlewareOption{
				WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "custom", ErrorCode: core.ErrorCode(err)})
				}),
			},
			validateToken: func(context.Context, string) (any, error) {
				return nil, core.NewValidationError(core.ErrorCodeTokenExpired, "token expired", nil)
			},
			authorization:  "Bearer whatever",
			wantStatusCode: http.StatusForbidden,
			wantErrorCode:  core.ErrorCodeTokenExpired,
		},
		{
			name: "it passes through whatever the validator returns",
			validateToken: func(context.Context, string) (any, error) {
				return "a custom token", nil
			},
			authorization:  "Bearer whatever",
			wantClaims:     "a custom token",
			wantStatusCode: http.StatusOK,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			validateToken := testCase.validateToken
			if validateToken == nil {
				validateToken = client.ValidateTokenAny
			}

			middleware, err := NewMiddleware(validateToken, testCase.options...)
			require.NoError(t, err)

			var gotClaims interface{}
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotClaims = r.Context().Value(ContextKey{})
				w.WriteHeader(http.StatusOK)
			})

			testServer := httptest.NewServer(middleware.CheckJWT(handler))
			defer testServer.Close()

			method := testCase.method
			if method == "" {
				method = http.MethodGet
			}
			request, err := http.NewRequest(method, testServer.URL+testCase.path, nil)
			require.NoError(t, err)
			if testCase.authorization != "" {
				request.Header.Set("Authorization", testCase.authorization)
			}

			response, err := testServer.Client().Do(request)
			require.NoError(t, err)
			defer response.Body.Close()

			assert.Equal(t, testCase.wantStatusCode, response.StatusCode)

			if testCase.wantErrorCode != "" {
				body, err := io.ReadAll(response.Body)
				require.NoError(t, err)

				var errorResponse ErrorResponse
				require.NoError(t, json.Unmarshal(body, &errorResponse))
				assert.Equal(t, testCase.wantErrorCode, errorResponse.ErrorCode)
			}

			if diff := cmp.Diff(testCase.wantClaims, gotClaims, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("claims mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_NewMiddleware(t *testing.T) {
	validateToken := func(context.Context, string) (any, error) { return nil, nil }

	testCases := []struct {
		name    string
		options []MiddlewareOption
		wantErr error
	}{
		{name: "nil error handler", options: []MiddlewareOption{WithErrorHandler(nil)}, wantErr: ErrErrorHandlerNil},
		{name: "nil token extractor", options: []MiddlewareOption{WithTokenExtractor(nil)}, wantErr: ErrTokenExtractorNil},
		{name: "empty exclusions", options: []MiddlewareOption{WithExclusionURLs()}, wantErr: ErrExclusionURLsEmpty},
		{name: "nil logger", options: []MiddlewareOption{WithMiddlewareLogger(nil)}, wantErr: ErrLoggerNil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := NewMiddleware(validateToken, testCase.options...)
			assert.ErrorIs(t, err, testCase.wantErr)
		})
	}

	t.Run("it requires a validateToken func", func(t *testing.T) {
		_, err := NewMiddleware(nil)
		assert.ErrorIs(t, err, ErrValidateTokenNil)
	})
}

func Test_GetClaims(t *testing.T) {
	claims := &core.ValidatedClaims{KeyID: "k1"}
	ctx := context.WithValue(context.Background(), ContextKey{}, claims)

	got, err := GetClaims[*core.ValidatedClaims](ctx)
	require.NoError(t, err)
	assert.Same(t, claims, got)
	assert.True(t, HasClaims(ctx))

	_, err = GetClaims[string](ctx)
	assert.ErrorIs(t, err, ErrClaimsNotFound)

	_, err = GetClaims[*core.ValidatedClaims](context.Background())
	assert.True(t, errors.Is(err, ErrClaimsNotFound))
	assert.False(t, HasClaims(context.Background()))
}
