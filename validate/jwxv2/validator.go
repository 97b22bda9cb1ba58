// Package jwxv2 reads token headers and verifies tokens against a
// keyset.KeyRecord using github.com/lestrrat-go/jwx/v2.
package jwxv2

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/auth0/go-jwkclient/core"
	"github.com/auth0/go-jwkclient/keyset"
)

// Validator implements both the header reader and the verifier the
// client needs. It is safe for concurrent use.
type Validator struct {
	allowedClockSkew time.Duration                                      // Optional.
	clock            func() time.Time                                   // Optional.
	claimsCheck      func(context.Context, *core.ValidatedClaims) error // Optional.
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

// ReadHeader returns the kid and alg of a compact JWS without verifying it.
func (v *Validator) ReadHeader(token string) (core.TokenHeader, error) {
	if strings.Count(token, ".") != 2 {
		return core.TokenHeader{}, malformed(errors.New("token is not in compact serialization"))
	}

	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return core.TokenHeader{}, malformed(err)
	}

	signatures := msg.Signatures()
	if len(signatures) != 1 {
		return core.TokenHeader{}, malformed(fmt.Errorf("expected one signature, found %d", len(signatures)))
	}

	headers := signatures[0].ProtectedHeaders()
	kid := headers.KeyID()
	if kid == "" {
		return core.TokenHeader{}, malformed(errors.New("token is missing public key id (kid)"))
	}

	return core.TokenHeader{KeyID: kid, Algorithm: headers.Algorithm().String()}, nil
}

// Verify checks the signature of token with key and validates exp, nbf,
// iat, iss and aud.
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

	var sigAlg jwa.SignatureAlgorithm
	if err := sigAlg.Accept(alg); err != nil {
		return nil, core.NewValidationError(core.ErrorCodeInvalidAlgorithm, "signing method is invalid", err)
	}

	parsed, err := jwt.Parse(
		[]byte(token),
		jwt.WithKey(sigAlg, key.Material),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithClock(jwt.ClockFunc(v.clock)),
		jwt.WithAcceptableSkew(v.allowedClockSkew),
	)
	if err != nil {
		return nil, classify(err)
	}

	claims := &core.ValidatedClaims{
		KeyID: header.KeyID,
		RegisteredClaims: core.RegisteredClaims{
			Issuer:    parsed.Issuer(),
			Subject:   parsed.Subject(),
			Audience:  parsed.Audience(),
			Expiry:    unixTime(parsed.Expiration()),
			NotBefore: unixTime(parsed.NotBefore()),
			IssuedAt:  unixTime(parsed.IssuedAt()),
			ID:        parsed.JwtID(),
		},
		Custom: parsed.PrivateClaims(),
	}

	if v.claimsCheck != nil {
		if err := v.claimsCheck(ctx, claims); err != nil {
			return nil, core.NewValidationError(core.ErrorCodeInvalidClaims, "custom claims not validated", err)
		}
	}

	return claims, nil
}

// classify maps a jwt.Parse error onto the error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		return core.NewValidationError(core.ErrorCodeTokenExpired, "token expired", err)
	case errors.Is(err, jwt.ErrTokenNotYetValid()):
		return core.NewValidationError(core.ErrorCodeTokenNotYetValid, "token not yet valid", err)
	case errors.Is(err, jwt.ErrInvalidIssuer()):
		return core.NewValidationError(core.ErrorCodeInvalidIssuer, "issuer mismatch", err)
	case errors.Is(err, jwt.ErrInvalidAudience()):
		return core.NewValidationError(core.ErrorCodeInvalidAudience, "audience mismatch", err)
	case jwt.IsValidationError(err):
		return core.NewValidationError(core.ErrorCodeInvalidClaims, "expected claims not validated", err)
	default:
		return core.NewValidationError(core.ErrorCodeInvalidSignature, "could not verify token signature", err)
	}
}

func malformed(err error) error {
	return core.NewValidationError(core.ErrorCodeTokenMalformed, "could not parse the token", err)
}

func unixTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
