/*
Package core holds the types shared by the client, the verifier
implementations and the transport adapters: the error taxonomy, the
validated claims and the context helpers.

# Errors

Every validation failure is a *ValidationError. Match it with errors.Is
against one of the sentinels:

	ErrTokenFormat       the token is malformed; no refresh is attempted
	ErrKeyNotFound       unknown kid, or the key is not active yet
	ErrSignatureInvalid  the signature does not verify
	ErrClaimsInvalid     exp, nbf, iss or aud rejected the token

All of them also match ErrJWTInvalid, which is what the HTTP and gRPC
adapters translate into 401 and Unauthenticated. ErrFetch never reaches a
ValidateToken caller: a failed refresh surfaces the original failure.
*/
package core
