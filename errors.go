package jwkclient

import (
	"errors"

	"github.com/auth0/go-jwkclient/core"
)

// Validation errors, re-exported from core so callers need one import.
var (
	ErrJWTMissing       = core.ErrJWTMissing
	ErrJWTInvalid       = core.ErrJWTInvalid
	ErrTokenFormat      = core.ErrTokenFormat
	ErrKeyNotFound      = core.ErrKeyNotFound
	ErrSignatureInvalid = core.ErrSignatureInvalid
	ErrClaimsInvalid    = core.ErrClaimsInvalid
	ErrFetch            = core.ErrFetch
	ErrConfigInvalid    = core.ErrConfigInvalid
	ErrClaimsNotFound   = core.ErrClaimsNotFound
)

// Sentinel errors for configuration validation
var (
	ErrJWKSURIEmpty        = errors.New("jwks URI cannot be empty")
	ErrIssuerEmpty         = errors.New("issuer cannot be empty")
	ErrAudienceEmpty       = errors.New("audience cannot be empty")
	ErrNegativeDuration    = errors.New("duration cannot be negative")
	ErrFetchTimeoutInvalid = errors.New("fetch timeout must be positive")
	ErrFetcherNil          = errors.New("fetcher cannot be nil")
	ErrHeaderReaderNil     = errors.New("header reader cannot be nil")
	ErrVerifierNil         = errors.New("verifier cannot be nil")
	ErrClockNil            = errors.New("clock cannot be nil")
	ErrLoggerNil           = errors.New("logger cannot be nil")
	ErrMetricsNil          = errors.New("metrics cannot be nil")
	ErrTracerNil           = errors.New("tracer cannot be nil")
	ErrHTTPClientNil       = errors.New("HTTP client cannot be nil")
	ErrTokenCacheNil       = errors.New("token cache cannot be nil")
	ErrValidateTokenNil    = errors.New("validateToken cannot be nil")
	ErrErrorHandlerNil     = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil   = errors.New("tokenExtractor cannot be nil")
	ErrExclusionURLsEmpty  = errors.New("exclusion URLs list cannot be empty")
)

func configError(err error) error {
	return core.NewValidationError(core.ErrorCodeConfigInvalid, "invalid client configuration", err)
}
