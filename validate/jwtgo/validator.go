// Package jwtgo reads token headers and verifies tokens against a
// keyset.KeyRecord using github.com/golang-jwt/jwt/v5.
package jwtgo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/auth0/go-jwkclient/core"
	"github.com/auth0/go-jwkclient/keyset"
)

var registeredClaimNames = map[string]bool{
	"iss": true,
	"sub": true,
	"aud": true,
	"exp": true,
	"nbf": true,
	"iat": true,
	"jti": true,
}

// Validator implements both the header reader and the verifier the
// client needs. It is safe for concurrent use.
type Validator struct {
	// optional options
	allowedClockSkew   time.Duration
	clock              func() time.Time
	expirationRequired bool
	claimsCheck        func(context.Context, *core.ValidatedClaims) error
}

// New sets up a new Validator.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{clock: time.Now}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return v, nil
}

// ReadHeader returns the kid and alg of a token without verifying it.
func (v *Validator) ReadHeader(token string) (core.TokenHeader, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return core.TokenHeader{}, malformed(err)
	}

	kid, _ := parsed.Header["kid"].(string)
	if kid == "" {
		return core.TokenHeader{}, malformed(errors.New("token is missing public key id (kid)"))
	}
	alg, _ := parsed.Header["alg"].(string)

	return core.TokenHeader{KeyID: kid, Algorithm: alg}, nil
}

// Verify checks the signature of token with key and validates exp, nbf,
// iss and aud.
func (v *Validator) Verify(
	ctx context.Context,
	token string,
	key keyset.KeyRecord,
	issuer string,
	audience string,
) (*core.ValidatedClaims, error) {
	header, err := v.ReadHeader(token)
	if err != nil {
		return nil, err
	}

	alg, err := core.ResolveAlgorithm(header.Algorithm, key.Algorithm)
	if err != nil {
		return nil, err
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(v.clock),
		jwt.WithLeeway(v.allowedClockSkew),
	}
	if v.expirationRequired {
		parserOpts = append(parserOpts, jwt.WithExpirationRequired())
	}

	mapClaims := jwt.MapClaims{}
	_, err = jwt.NewParser(parserOpts...).ParseWithClaims(token, mapClaims, func(*jwt.Token) (interface{}, error) {
		return key.Material, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, err := toValidatedClaims(header.KeyID, mapClaims)
	if err != nil {
		return nil, core.NewValidationError(core.ErrorCodeInvalidClaims, "expected claims not validated", err)
	}

	if v.claimsCheck != nil {
		if err := v.claimsCheck(ctx, claims); err != nil {
			return nil, core.NewValidationError(core.ErrorCodeInvalidClaims, "custom claims not validated", err)
		}
	}

	return claims, nil
}

func toValidatedClaims(kid string, mapClaims jwt.MapClaims) (*core.ValidatedClaims, error) {
	issuer, err := mapClaims.GetIssuer()
	if err != nil {
		return nil, err
	}
	subject, err := mapClaims.GetSubject()
	if err != nil {
		return nil, err
	}
	audience, err := mapClaims.GetAudience()
	if err != nil {
		return nil, err
	}
	expiry, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	notBefore, err := mapClaims.GetNotBefore()
	if err != nil {
		return nil, err
	}
	issuedAt, err := mapClaims.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	id, _ := mapClaims["jti"].(string)

	custom := make(map[string]interface{})
	for name, value := range mapClaims {
		if !registeredClaimNames[name] {
			custom[name] = value
		}
	}

	return &core.ValidatedClaims{
		KeyID: kid,
		RegisteredClaims: core.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  []string(audience),
			Expiry:    unixTime(expiry),
			NotBefore: unixTime(notBefore),
			IssuedAt:  unixTime(issuedAt),
			ID:        id,
		},
		Custom: custom,
	}, nil
}

// classify maps a ParseWithClaims error onto the error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return malformed(err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.NewValidationError(core.ErrorCodeTokenExpired, "token expired", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return core.NewValidationError(core.ErrorCodeTokenNotYetValid, "token not yet valid", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return core.NewValidationError(core.ErrorCodeInvalidIssuer, "issuer mismatch", err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return core.NewValidationError(core.ErrorCodeInvalidAudience, "audience mismatch", err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return core.NewValidationError(core.ErrorCodeInvalidClaims, "expected claims not validated", err)
	default:
		return core.NewValidationError(core.ErrorCodeInvalidSignature, "could not verify token signature", err)
	}
}

func malformed(err error) error {
	return core.NewValidationError(core.ErrorCodeTokenMalformed, "could not parse the token", err)
}

func unixTime(date *jwt.NumericDate) int64 {
	if date == nil {
		return 0
	}
	return date.Unix()
}
