/*
Package jwtgrpc validates bearer tokens on incoming gRPC calls.

The interceptors read the "authorization" metadata entry, validate the token
with a TokenValidator (normally a *jwkclient.Client) and store the claims in
the handler context, where GetClaims finds them.

	client, err := jwkclient.New(jwksURI, issuer, audience)
	if err != nil {
	    log.Fatal(err)
	}

	interceptor, err := jwtgrpc.New(client,
	    jwtgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	server := grpc.NewServer(
	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
	)

Validation failures become Unauthenticated status errors, issuer and
audience mismatches PermissionDenied, malformed metadata InvalidArgument and
key set outages Unavailable. Use WithErrorHandler to change the mapping.
*/
package jwtgrpc
