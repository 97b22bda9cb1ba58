package core

// TokenHeader is the part of a token header needed to pick a key.
type TokenHeader struct {
	KeyID     string
	Algorithm string
}

// RegisteredClaims represents public claim
// values (as specified in RFC 7519).
type RegisteredClaims struct {
	Issuer    string   `json:"iss,omitempty"`
	Subject   string   `json:"sub,omitempty"`
	Audience  []string `json:"aud,omitempty"`
	Expiry    int64    `json:"exp,omitempty"`
	NotBefore int64    `json:"nbf,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	ID        string   `json:"jti,omitempty"`
}

// ValidatedClaims is the claims set of a token that passed verification.
type ValidatedClaims struct {
	// KeyID is the kid of the key that verified the token.
	KeyID string `json:"-"`

	RegisteredClaims RegisteredClaims `json:"registered"`

	// Custom holds every non-registered claim.
	Custom map[string]any `json:"custom,omitempty"`
}
