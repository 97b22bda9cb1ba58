package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer creates a test HTTP server that returns the specified response code and body.
func setupTestServer(responseCode int, responseBody string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(responseCode)
		_, _ = w.Write([]byte(responseBody))
	}))
}

func TestGetWellKnownEndpointsFromIssuerURL(t *testing.T) {
	tests := []struct {
		name           string
		responseCode   int
		responseBody   string
		expectedIssuer string
		wantJWKSURI    string
		wantErr        string
	}{
		{
			name:           "Successful 200 response with valid JSON",
			responseCode:   http.StatusOK,
			responseBody:   `{"issuer":"https://example.com/","jwks_uri":"https://example.com/jwks"}`,
			expectedIssuer: "https://example.com/",
			wantJWKSURI:    "https://example.com/jwks",
		},
		{
			name:           "Trailing slash differences are tolerated",
			responseCode:   http.StatusOK,
			responseBody:   `{"issuer":"https://example.com","jwks_uri":"https://example.com/jwks"}`,
			expectedIssuer: "https://example.com/",
			wantJWKSURI:    "https://example.com/jwks",
		},
		{
			name:         "No expected issuer skips the issuer check",
			responseCode: http.StatusOK,
			responseBody: `{"issuer":"https://other.example.com","jwks_uri":"https://example.com/jwks"}`,
			wantJWKSURI:  "https://example.com/jwks",
		},
		{
			name:           "Issuer mismatch",
			responseCode:   http.StatusOK,
			responseBody:   `{"issuer":"https://evil.example.com","jwks_uri":"https://example.com/jwks"}`,
			expectedIssuer: "https://example.com/",
			wantErr:        "issuer mismatch",
		},
		{
			name:         "404 Not Found response",
			responseCode: http.StatusNotFound,
			responseBody: `{"error": "not found"}`,
			wantErr:      "status 404",
		},
		{
			name:         "Malformed JSON response",
			responseCode: http.StatusOK,
			responseBody: `{"jwks_uri": "https://example.com/jwks"`,
			wantErr:      "could not decode json body",
		},
		{
			name:         "Missing jwks_uri",
			responseCode: http.StatusOK,
			responseBody: `{"issuer":"https://example.com"}`,
			wantErr:      "do not contain a jwks_uri",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(tt.responseCode, tt.responseBody)
			defer server.Close()

			issuerURL, err := url.Parse(server.URL)
			require.NoError(t, err)

			endpoints, err := GetWellKnownEndpointsFromIssuerURL(
				context.Background(),
				server.Client(),
				*issuerURL,
				tt.expectedIssuer,
			)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantJWKSURI, endpoints.JWKSURI)
		})
	}

	t.Run("It honours context cancellation", func(t *testing.T) {
		server := setupTestServer(http.StatusOK, `{"jwks_uri":"https://example.com/jwks"}`)
		defer server.Close()

		issuerURL, err := url.Parse(server.URL)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = GetWellKnownEndpointsFromIssuerURL(ctx, server.Client(), *issuerURL, "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
