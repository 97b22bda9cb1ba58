package core

import "context"

type contextKey int

const claimsKey contextKey = iota

// SetClaims stores validated claims in ctx.
func SetClaims(ctx context.Context, claims *ValidatedClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the claims stored by SetClaims.
//
//	claims, err := core.GetClaims(r.Context())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(claims.RegisteredClaims.Subject)
func GetClaims(ctx context.Context) (*ValidatedClaims, error) {
	claims, ok := ctx.Value(claimsKey).(*ValidatedClaims)
	if !ok || claims == nil {
		return nil, ErrClaimsNotFound
	}
	return claims, nil
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	_, err := GetClaims(ctx)
	return err == nil
}
