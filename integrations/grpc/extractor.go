package jwtgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/metadata"

	jwkclient "github.com/auth0/go-jwkclient"
)

// TokenExtractor extracts JWT tokens from gRPC metadata. As with the HTTP
// extractors, a missing token is an empty string and no error.
type TokenExtractor func(ctx context.Context) (string, error)

// ErrMultipleAuthHeaders indicates multiple authorization metadata entries were provided.
var ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

// MetadataTokenExtractor extracts JWT from the "authorization" metadata key.
// gRPC lowercases incoming metadata keys, so only that spelling is checked.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	authHeaders := md.Get("authorization")
	switch len(authHeaders) {
	case 0:
		return "", nil
	case 1:
		return jwkclient.BearerToken(authHeaders[0])
	default:
		return "", ErrMultipleAuthHeaders
	}
}
