package core

import "errors"

// Sentinel errors for token validation. Every *ValidationError matches
// ErrJWTInvalid and the sentinel of its Code under errors.Is.
var (
	// ErrJWTMissing is returned when the request carried no token.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid is returned when the JWT is invalid.
	// This is typically wrapped with more specific validation errors.
	ErrJWTInvalid = errors.New("jwt invalid")

	// ErrTokenFormat means the token could not be split into header,
	// payload and signature, or its header carries no key id.
	ErrTokenFormat = errors.New("token malformed")

	// ErrKeyNotFound means the key id is not in the snapshot, or the key
	// is not active yet.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrSignatureInvalid means the cryptographic check failed.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrClaimsInvalid means expiry, issuer, audience or another claim
	// check failed.
	ErrClaimsInvalid = errors.New("claims invalid")

	// ErrFetch means the key set could not be retrieved or parsed.
	ErrFetch = errors.New("jwks fetch failed")

	// ErrConfigInvalid means the client was built with bad settings.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)

// Common error codes
const (
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeKeyNotFound      = "jwks_key_not_found"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeInvalidClaims    = "invalid_claims"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeTokenNotYetValid = "token_not_yet_valid"
	ErrorCodeInvalidIssuer    = "invalid_issuer"
	ErrorCodeInvalidAudience  = "invalid_audience"
	ErrorCodeInvalidAlgorithm = "invalid_algorithm"
	ErrorCodeFetchFailed      = "jwks_fetch_failed"
	ErrorCodeConfigInvalid    = "config_invalid"
	ErrorCodeClaimsNotFound   = "claims_not_found"
)

var codeSentinels = map[string]error{
	ErrorCodeTokenMalformed:   ErrTokenFormat,
	ErrorCodeKeyNotFound:      ErrKeyNotFound,
	ErrorCodeInvalidSignature: ErrSignatureInvalid,
	ErrorCodeInvalidAlgorithm: ErrSignatureInvalid,
	ErrorCodeInvalidClaims:    ErrClaimsInvalid,
	ErrorCodeTokenExpired:     ErrClaimsInvalid,
	ErrorCodeTokenNotYetValid: ErrClaimsInvalid,
	ErrorCodeInvalidIssuer:    ErrClaimsInvalid,
	ErrorCodeInvalidAudience:  ErrClaimsInvalid,
	ErrorCodeFetchFailed:      ErrFetch,
	ErrorCodeConfigInvalid:    ErrConfigInvalid,
	ErrorCodeClaimsNotFound:   ErrClaimsNotFound,
}

// ValidationError wraps JWT validation errors with additional context.
// It provides structured error information that can be used for
// logging, metrics, and returning appropriate error responses.
type ValidationError struct {
	// Code is a machine-readable error code (e.g., "token_expired", "invalid_signature")
	Code string

	// Message is a human-readable error message
	Message string

	// Details contains the underlying error
	Details error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is matches ErrJWTInvalid and the sentinel registered for e.Code.
func (e *ValidationError) Is(target error) bool {
	if target == ErrJWTInvalid {
		return e.Code != ErrorCodeConfigInvalid && e.Code != ErrorCodeFetchFailed
	}
	sentinel, ok := codeSentinels[e.Code]
	return ok && target == sentinel
}

// NewValidationError creates a new ValidationError with the given code and message.
func NewValidationError(code, message string, details error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrorCode returns the code of the first ValidationError in err's chain,
// or "" when there is none.
func ErrorCode(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code
	}
	return ""
}

// IsRetryable reports whether a failed validation may be repaired by
// refreshing the key set. Malformed tokens never are.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, ErrTokenFormat) && !errors.Is(err, ErrConfigInvalid)
}
