package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/internal/config"
	"github.com/auth0/go-jwkclient/jwks"
	"github.com/auth0/go-jwkclient/validate/jwtgo"
	"github.com/auth0/go-jwkclient/validate/jwxv2"
)

var logLevels = map[string]jwkclient.LogLevel{
	"none":  jwkclient.LogLevelNone,
	"error": jwkclient.LogLevelError,
	"warn":  jwkclient.LogLevelWarn,
	"info":  jwkclient.LogLevelInfo,
	"debug": jwkclient.LogLevelDebug,
}

// app is the state shared by the subcommands once flags are parsed.
type app struct {
	configFile  string
	envFile     string
	showMetrics bool

	cfg      *config.Config
	logger   jwkclient.Logger
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "jwkcheck",
		Short:        "Validate JWTs against a JWKS endpoint",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configFile, a.envFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cfg, cmd.ErrOrStderr())
			a.registry = prometheus.NewRegistry()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if !a.showMetrics {
				return nil
			}
			return writeMetrics(cmd.ErrOrStderr(), a.registry)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./jwkcheck.yaml if present)")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file with JWKCHECK_* settings")
	flags.BoolVar(&a.showMetrics, "metrics", false, "print the client metrics to stderr when done")
	flags.String("jwks-uri", "", "JWKS URI, discovered from the issuer when empty")
	flags.String("issuer", "", "expected token issuer")
	flags.String("audience", "", "expected token audience")
	flags.Duration("auto-refresh-interval", 0, "key set age that triggers a refresh before validating (default 1h)")
	flags.Duration("retry-rate-limit", 0, "minimum spacing of refreshes caused by failed validations (default 5m)")
	flags.Duration("fetch-timeout", 0, "timeout of a single key set fetch (default 30s)")
	flags.Duration("clock-skew", 0, "tolerance applied to exp, nbf and iat")
	flags.String("verifier", "", "token verifier: jwx or jwtgo (default jwx)")
	flags.String("log-level", "", "none, error, warn, info or debug (default warn)")
	flags.String("logger", "", "std, zap, zerolog or logrus (default std)")

	cmd.AddCommand(newValidateCmd(a), newKeysCmd(a))

	return cmd
}

// newClient builds a client from the loaded configuration, discovering
// the JWKS URI first when none is configured.
func (a *app) newClient(ctx context.Context) (*jwkclient.Client, error) {
	issuerURL, err := url.Parse(a.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer URL: %w", err)
	}

	fetcherOpts := []jwks.Option{
		jwks.WithHTTPClient(&http.Client{Timeout: a.cfg.FetchTimeout}),
		jwks.WithDiscovery(issuerURL),
	}
	if len(a.cfg.Headers) > 0 {
		fetcherOpts = append(fetcherOpts, jwks.WithHeaders(a.cfg.Headers))
	}
	fetcher, err := jwks.NewFetcher(fetcherOpts...)
	if err != nil {
		return nil, err
	}

	jwksURI := a.cfg.JWKSURI
	if jwksURI == "" {
		jwksURI, err = fetcher.DiscoverJWKSURI(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to discover the JWKS URI: %w", err)
		}
		a.logger.Infof("discovered JWKS URI %s", jwksURI)
	}

	var validator interface {
		jwkclient.HeaderReader
		jwkclient.Verifier
	}
	switch a.cfg.Verifier {
	case "jwtgo":
		validator, err = jwtgo.New(jwtgo.WithAllowedClockSkew(a.cfg.ClockSkew))
	default:
		validator, err = jwxv2.New(jwxv2.WithAllowedClockSkew(a.cfg.ClockSkew))
	}
	if err != nil {
		return nil, err
	}

	return jwkclient.New(
		jwksURI,
		a.cfg.Issuer,
		a.cfg.Audience,
		jwkclient.WithFetcher(fetcher),
		jwkclient.WithHeaderReader(validator),
		jwkclient.WithVerifier(validator),
		jwkclient.WithAutoRefreshInterval(a.cfg.AutoRefreshInterval),
		jwkclient.WithRetryRateLimit(a.cfg.RetryRateLimit),
		jwkclient.WithFetchTimeout(a.cfg.FetchTimeout),
		jwkclient.WithLogger(a.logger),
		jwkclient.WithMetrics(jwkclient.NewPrometheusMetrics(a.registry)),
	)
}

func newLogger(cfg *config.Config, w io.Writer) jwkclient.Logger {
	var logger jwkclient.Logger
	switch cfg.Logger {
	case "zap":
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(w),
			zapcore.DebugLevel,
		)
		logger = jwkclient.NewZapLogger(zap.New(core).Sugar())
	case "zerolog":
		logger = jwkclient.NewZerologLogger(zerolog.New(w).With().Timestamp().Logger())
	case "logrus":
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(logrus.DebugLevel)
		logger = jwkclient.NewLogrusLogger(l)
	default:
		logger = &jwkclient.DefaultLogger{}
	}
	return jwkclient.NewLeveledLogger(logger, logLevels[cfg.LogLevel])
}
