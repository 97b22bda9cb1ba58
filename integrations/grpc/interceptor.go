package jwtgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
)

// TokenValidator validates a raw token. *jwkclient.Client implements it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*core.ValidatedClaims, error)
}

// JWTInterceptor provides JWT validation for gRPC servers.
type JWTInterceptor struct {
	validator           TokenValidator
	tokenExtractor      TokenExtractor
	errorHandler        ErrorHandler
	excludedMethods     map[string]bool
	credentialsOptional bool
	logger              jwkclient.Logger
}

// New creates a new gRPC JWT interceptor validating tokens with validator.
func New(validator TokenValidator, opts ...Option) (*JWTInterceptor, error) {
	if validator == nil {
		return nil, errors.New("validator cannot be nil")
	}

	interceptor := &JWTInterceptor{
		validator:       validator,
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
		logger:          jwkclient.NoopLogger{},
	}

	for _, opt := range opts {
		if err := opt(interceptor); err != nil {
			return nil, err
		}
	}

	return interceptor, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that validates JWTs.
func (i *JWTInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			i.logger.Debugf("skipping JWT validation for excluded method %s", info.FullMethod)
			return handler(ctx, req)
		}

		validatedCtx, err := i.validateRequest(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(validatedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that validates JWTs.
func (i *JWTInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			i.logger.Debugf("skipping JWT validation for excluded method %s", info.FullMethod)
			return handler(srv, ss)
		}

		validatedCtx, err := i.validateRequest(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: validatedCtx})
	}
}

func (i *JWTInterceptor) validateRequest(ctx context.Context, method string) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		i.logger.Errorf("failed to extract token from gRPC metadata for %s: %v", method, err)
		return ctx, i.errorHandler(err)
	}

	if token == "" {
		if i.credentialsOptional {
			i.logger.Debugf("no credentials provided for %s, continuing without claims", method)
			return ctx, nil
		}
		return ctx, i.errorHandler(core.ErrJWTMissing)
	}

	claims, err := i.validator.ValidateToken(ctx, token)
	if err != nil {
		i.logger.Warnf("JWT validation failed for %s: %v", method, err)
		return ctx, i.errorHandler(err)
	}

	return core.SetClaims(ctx, claims), nil
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context with JWT claims.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
