// Command jwkcheck validates tokens against a JWKS endpoint and lists the
// keys it serves.
//
//	jwkcheck validate --issuer https://tenant.auth0.com/ --audience my-api "$TOKEN"
//	jwkcheck keys --jwks-uri https://tenant.auth0.com/.well-known/jwks.json --issuer https://tenant.auth0.com/ --audience my-api
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
