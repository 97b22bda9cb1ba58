package jwxv2

import (
	"context"
	"errors"
	"time"

	"github.com/auth0/go-jwkclient/core"
)

// Option is how options for the Validator are set up.
type Option func(*Validator) error

// WithAllowedClockSkew sets the tolerance applied to exp, nbf and iat.
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

// WithClock sets the clock time-based claims are checked against.
func WithClock(clock func() time.Time) Option {
	return func(v *Validator) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		v.clock = clock
		return nil
	}
}

// WithClaimsCheck sets a function run on the claims of every token whose
// signature and registered claims passed. An error rejects the token as
// core.ErrClaimsInvalid.
func WithClaimsCheck(check func(context.Context, *core.ValidatedClaims) error) Option {
	return func(v *Validator) error {
		if check == nil {
			return errors.New("claims check cannot be nil")
		}
		v.claimsCheck = check
		return nil
	}
}
