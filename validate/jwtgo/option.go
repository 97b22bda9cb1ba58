package jwtgo

import (
	"context"
	"errors"
	"time"

	"github.com/auth0/go-jwkclient/core"
)

// Option is how options for the Validator are set up.
type Option func(*Validator) error

// WithAllowedClockSkew is an option which sets up the allowed
// clock skew for the token. Note that in order to use this
// the expected claims Time field MUST not be time.IsZero().
// If this option is not used clock skew is not allowed.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithClock sets the clock exp, nbf and iat are checked against.
func WithClock(clock func() time.Time) Option {
	return func(v *Validator) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		v.clock = clock
		return nil
	}
}

// WithExpirationRequired rejects tokens that carry no exp claim.
func WithExpirationRequired() Option {
	return func(v *Validator) error {
		v.expirationRequired = true
		return nil
	}
}

// WithClaimsCheck sets up a function run on the claims of every token
// whose signature and registered claims passed. If this option is not
// used the validator will do nothing for custom claims.
func WithClaimsCheck(check func(context.Context, *core.ValidatedClaims) error) Option {
	return func(v *Validator) error {
		if check == nil {
			return errors.New("claims check cannot be nil")
		}
		v.claimsCheck = check
		return nil
	}
}
