package jwtgrpc

import (
	"context"

	"github.com/auth0/go-jwkclient/core"
)

// GetClaims returns the claims the interceptor stored in ctx.
//
//	claims, err := jwtgrpc.GetClaims(ctx)
//	if err != nil {
//	    return nil, status.Error(codes.Internal, "failed to get claims")
//	}
//	fmt.Println(claims.RegisteredClaims.Subject)
func GetClaims(ctx context.Context) (*core.ValidatedClaims, error) {
	return core.GetClaims(ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after interceptor has run).
func MustGetClaims(ctx context.Context) *core.ValidatedClaims {
	claims, err := core.GetClaims(ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}
