package jwkclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/auth0/go-jwkclient/core"
)

// ErrorHandler is a handler which is called when an error occurs in the
// Middleware. Among some general errors, this handler also determines the
// response of the Middleware when a token is not found or is invalid. The
// err can be checked to be ErrJWTMissing or ErrJWTInvalid for specific cases.
// The default handler will return a status code of 400 for ErrJWTMissing,
// 401 for ErrJWTInvalid, and 500 for all other errors. If you implement your
// own ErrorHandler you MUST take into consideration the error types as not
// properly responding to them or having a poorly implemented handler could
// result in the Middleware not functioning as intended.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by DefaultErrorHandler. Error is
// an RFC 6750 error code; ErrorCode is the ValidationError code, if any.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
}

var errorDescriptions = map[string]string{
	core.ErrorCodeTokenMalformed:   "The access token is malformed",
	core.ErrorCodeKeyNotFound:      "Unable to verify the access token",
	core.ErrorCodeInvalidSignature: "The access token signature is invalid",
	core.ErrorCodeInvalidAlgorithm: "The access token uses an unsupported algorithm",
	core.ErrorCodeTokenExpired:     "The access token expired",
	core.ErrorCodeTokenNotYetValid: "The access token is not yet valid",
	core.ErrorCodeInvalidIssuer:    "The access token was issued by an untrusted issuer",
	core.ErrorCodeInvalidAudience:  "The access token audience does not match",
	core.ErrorCodeInvalidClaims:    "The access token claims are invalid",
}

// DefaultErrorHandler is the default error handler implementation for the
// Middleware. If an error handler is not provided via the
// WithErrorHandler option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status, challenge, response := ResponseFor(err)

	w.Header().Set("Content-Type", "application/json")
	if challenge != "" {
		w.Header().Set("WWW-Authenticate", challenge)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// ResponseFor returns the status code, WWW-Authenticate challenge and body
// DefaultErrorHandler writes for err. The challenge is empty when no header
// should be sent.
func ResponseFor(err error) (int, string, ErrorResponse) {
	switch {
	case errors.Is(err, ErrJWTMissing):
		// No error attributes when the request carried no credentials.
		return http.StatusBadRequest, "Bearer", ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "JWT is missing",
		}
	case errors.Is(err, ErrJWTInvalid):
		code := core.ErrorCode(err)
		description, ok := errorDescriptions[code]
		if !ok {
			description = "The access token is invalid"
		}
		return http.StatusUnauthorized,
			fmt.Sprintf(`Bearer error="invalid_token", error_description=%q`, description),
			ErrorResponse{Error: "invalid_token", ErrorDescription: description, ErrorCode: code}
	default:
		return http.StatusInternalServerError, "", ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "An internal error occurred while processing the request",
		}
	}
}

// invalidError handles wrapping a JWT validation error with
// the concrete error ErrJWTInvalid. We do not expose this
// publicly because the interface methods of Is and Unwrap
// should give the user all they need.
type invalidError struct {
	details error
}

// Is allows the error to support equality to ErrJWTInvalid.
func (e invalidError) Is(target error) bool {
	return target == ErrJWTInvalid
}

// Error returns a string representation of the error.
func (e invalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJWTInvalid, e.details)
}

// Unwrap allows the error to support equality to the
// underlying error and not just ErrJWTInvalid.
func (e invalidError) Unwrap() error {
	return e.details
}
