package core

import "fmt"

// Signature algorithms accepted from a JWKS. Only asymmetric algorithms are
// allowed: a key set is public, so an HMAC key in it would let anyone sign.
var allowedSigningAlgorithms = map[string]bool{
	"RS256": true,
	"RS384": true,
	"RS512": true,
	"PS256": true,
	"PS384": true,
	"PS512": true,
	"ES256": true,
	"ES384": true,
	"ES512": true,
	"EdDSA": true,
}

// ResolveAlgorithm returns the algorithm a token must be verified with.
// The token's alg has to be an allowed asymmetric algorithm and, when the
// key declares an alg, equal to it.
func ResolveAlgorithm(tokenAlg, keyAlg string) (string, error) {
	if !allowedSigningAlgorithms[tokenAlg] {
		return "", NewValidationError(
			ErrorCodeInvalidAlgorithm,
			"signing method is invalid",
			fmt.Errorf("unsupported signature algorithm %q", tokenAlg),
		)
	}
	if keyAlg != "" && keyAlg != tokenAlg {
		return "", NewValidationError(
			ErrorCodeInvalidAlgorithm,
			"signing method is invalid",
			fmt.Errorf("expected %q signing algorithm but token specified %q", keyAlg, tokenAlg),
		)
	}
	return tokenAlg, nil
}
