/*
Package oidc resolves an issuer's JWKS URI from its OpenID Connect
discovery document at

	<issuer>/.well-known/openid-configuration

The document must name a jwks_uri, and when an expected issuer is given its
issuer field must match it, ignoring a trailing slash.

	issuerURL, _ := url.Parse("https://auth.example.com/")
	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, http.DefaultClient, *issuerURL, issuerURL.String())
	if err != nil {
	    return err
	}
	fmt.Println(endpoints.JWKSURI)

See https://openid.net/specs/openid-connect-discovery-1_0.html.
*/
package oidc
