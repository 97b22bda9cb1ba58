/*
Package jwkclient validates JWTs against a remote JSON Web Key Set that it
caches and refreshes on its own.

A Client holds one immutable snapshot of the key set. Validations read the
snapshot without locking and never wait for a fetch unless they triggered
one. The snapshot is refreshed in two ways:

  - Proactively: once the snapshot is older than the auto refresh interval
    (default 1 hour), the next validation fetches before looking up its
    key. A failed proactive fetch is logged and the cached keys are used.
  - Reactively: when a token names an unknown key, a key that is not active
    yet, or fails verification, the client fetches once and retries that
    token once. Reactive fetches are rate-limited across all callers
    (default one per 5 minutes). A failed reactive fetch surfaces the
    token's own error, never the fetch error.

Concurrent refreshes share one in-flight fetch, and a slow fetch never
replaces a snapshot fetched after it.

# Quick Start

	client, err := jwkclient.New(
	    "https://your-domain.auth0.com/.well-known/jwks.json",
	    "https://your-domain.auth0.com/",
	    "your-api-identifier",
	)
	if err != nil {
	    log.Fatal(err)
	}

	// Optional: warm the cache before serving traffic.
	if err := client.Refresh(ctx); err != nil {
	    log.Printf("initial JWKS fetch failed: %v", err)
	}

	claims, err := client.ValidateToken(ctx, token)
	if err != nil {
	    // errors.Is(err, jwkclient.ErrKeyNotFound), ErrSignatureInvalid, ...
	}
	fmt.Println(claims.RegisteredClaims.Subject)

# HTTP Middleware

	middleware, err := jwkclient.NewMiddleware(client.ValidateTokenAny)
	if err != nil {
	    log.Fatal(err)
	}
	http.Handle("/api/", middleware.CheckJWT(apiHandler))

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    claims, err := jwkclient.GetClaims[*core.ValidatedClaims](r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", claims.RegisteredClaims.Subject)
	}

The default error handler answers 400 when the token is missing, 401 when
it is invalid and 500 otherwise, with an RFC 6750 WWW-Authenticate header.
Adapters for Gin, Echo and gRPC live under framework/ and integrations/.

# Errors

Every validation failure is a *core.ValidationError and matches
ErrJWTInvalid plus one of ErrTokenFormat, ErrKeyNotFound,
ErrSignatureInvalid or ErrClaimsInvalid under errors.Is. Malformed tokens
are rejected without a fetch.

# Observability

WithLogger accepts adapters for zap, zerolog and logrus. WithMetrics with
NewPrometheusMetrics records fetches, validations and denied retries.
WithTracer with NewOpenTelemetryTracer emits jwkclient.ValidateToken and
jwkclient.Fetch spans.
*/
package jwkclient
