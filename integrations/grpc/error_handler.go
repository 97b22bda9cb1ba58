package jwtgrpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
)

// ErrorHandler converts validation errors to gRPC status errors.
type ErrorHandler func(error) error

// DefaultErrorHandler maps JWT validation errors to gRPC status codes.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	var validationErr *core.ValidationError
	if errors.As(err, &validationErr) {
		return mapValidationError(validationErr)
	}

	switch {
	case errors.Is(err, core.ErrJWTMissing):
		return status.Error(codes.Unauthenticated, "missing credentials")
	case errors.Is(err, ErrMultipleAuthHeaders), errors.Is(err, jwkclient.ErrAuthHeaderFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, core.ErrFetch):
		return status.Error(codes.Unavailable, "unable to verify token")
	default:
		// Unknown failures must not leak as anything but an auth failure.
		return status.Error(codes.Unauthenticated, "invalid or malformed token")
	}
}

func mapValidationError(err *core.ValidationError) error {
	switch err.Code {
	case core.ErrorCodeTokenExpired:
		return status.Error(codes.Unauthenticated, "token expired")
	case core.ErrorCodeTokenNotYetValid:
		return status.Error(codes.Unauthenticated, "token not yet valid")
	case core.ErrorCodeInvalidIssuer:
		return status.Error(codes.PermissionDenied, "invalid issuer")
	case core.ErrorCodeInvalidAudience:
		return status.Error(codes.PermissionDenied, "invalid audience")
	case core.ErrorCodeInvalidSignature:
		return status.Error(codes.Unauthenticated, "invalid signature")
	case core.ErrorCodeTokenMalformed:
		return status.Error(codes.Unauthenticated, "malformed token")
	case core.ErrorCodeInvalidAlgorithm:
		return status.Error(codes.Unauthenticated, "invalid algorithm")
	case core.ErrorCodeKeyNotFound:
		return status.Error(codes.Unauthenticated, "unknown signing key")
	case core.ErrorCodeFetchFailed:
		return status.Error(codes.Unavailable, "unable to verify token")
	case core.ErrorCodeConfigInvalid:
		return status.Error(codes.Internal, "unable to verify token")
	default:
		return status.Error(codes.Unauthenticated, err.Message)
	}
}
