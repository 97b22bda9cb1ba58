/*
Package jwks fetches a JSON Web Key Set over HTTP and turns it into an
immutable keyset.Snapshot.

The Fetcher does no caching of its own. Deciding when to fetch, and
swapping the result in, is the job of jwkclient.Client and keyset.Store.

# What is kept from the document

  - keys that carry a "kid"
  - keys whose "use" is absent or "sig"
  - asymmetric keys only (RSA, EC, OKP); "oct" keys are ignored
  - the optional numeric "nbf" member, as the key's activation instant

A document with no key left after filtering is an error (ErrEmptyKeySet),
as is a document listing the same kid twice.

# Usage

	fetcher, err := jwks.NewFetcher(
	    jwks.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	)
	if err != nil {
	    log.Fatal(err)
	}

	snapshot, err := fetcher.Fetch(ctx, "https://auth.example.com/.well-known/jwks.json")

# Discovery

When the JWKS URI is not known up front, enable OIDC discovery and call
Fetch with an empty URI:

	issuerURL, _ := url.Parse("https://auth.example.com/")
	fetcher, _ := jwks.NewFetcher(jwks.WithDiscovery(issuerURL))
	snapshot, err := fetcher.Fetch(ctx, "")

The discovered URI is cached for the lifetime of the Fetcher. The issuer in
the discovery document must match issuerURL.

# Errors

Every error returned by Fetch matches core.ErrFetch under errors.Is.
*/
package jwks
