package jwtgrpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	jwkclient "github.com/auth0/go-jwkclient"
	"github.com/auth0/go-jwkclient/core"
	"github.com/auth0/go-jwkclient/internal/testkeys"
)

const testMethod = "/test.Service/Method"

func newTestClient(t *testing.T, keys ...*testkeys.Key) *jwkclient.Client {
	t.Helper()

	server := testkeys.NewServer(t, keys...)
	client, err := jwkclient.New(
		server.JWKSURI(),
		testkeys.Issuer,
		testkeys.Audience,
		jwkclient.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return client
}

func incoming(authorization ...string) context.Context {
	md := metadata.MD{}
	for _, value := range authorization {
		md.Append("authorization", value)
	}
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryServerInterceptor(t *testing.T) {
	key := testkeys.NewRSA(t, "kid-1")
	client := newTestClient(t, key)
	token := key.Sign(t, testkeys.Claims(time.Now()))
	expired := key.Sign(t, func() map[string]any {
		claims := testkeys.Claims(time.Now())
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		return claims
	}())

	testCases := []struct {
		name       string
		options    []Option
		method     string
		ctx        context.Context
		wantCode   codes.Code
		wantClaims bool
	}{
		{
			name:       "it validates the token and stores the claims",
			ctx:        incoming("Bearer " + token),
			wantCode:   codes.OK,
			wantClaims: true,
		},
		{
			name:     "it rejects a call without metadata",
			ctx:      context.Background(),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "it rejects an expired token",
			ctx:      incoming("Bearer " + expired),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "it rejects a malformed authorization value",
			ctx:      incoming("InvalidFormat"),
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "it rejects multiple authorization values",
			ctx:      incoming("Bearer "+token, "Bearer "+token),
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "it lets calls without a token through when credentials are optional",
			options:  []Option{WithCredentialsOptional(true)},
			ctx:      context.Background(),
			wantCode: codes.OK,
		},
		{
			name:       "it still validates tokens when credentials are optional",
			options:    []Option{WithCredentialsOptional(true)},
			ctx:        incoming("Bearer " + token),
			wantCode:   codes.OK,
			wantClaims: true,
		},
		{
			name:     "it skips excluded methods",
			options:  []Option{WithExcludedMethods("/grpc.health.v1.Health/Check")},
			method:   "/grpc.health.v1.Health/Check",
			ctx:      context.Background(),
			wantCode: codes.OK,
		},
		{
			name: "it uses the custom error handler",
			options: []Option{WithErrorHandler(func(error) error {
				return status.Error(codes.PermissionDenied, "nope")
			})},
			ctx:      incoming("Bearer " + expired),
			wantCode: codes.PermissionDenied,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			interceptor, err := New(client, testCase.options...)
			require.NoError(t, err)

			method := testCase.method
			if method == "" {
				method = testMethod
			}

			handlerCalled := false
			handler := func(ctx context.Context, _ any) (any, error) {
				handlerCalled = true
				assert.Equal(t, testCase.wantClaims, HasClaims(ctx))
				if testCase.wantClaims {
					claims := MustGetClaims(ctx)
					assert.Equal(t, testkeys.Subject, claims.RegisteredClaims.Subject)
					assert.Equal(t, "kid-1", claims.KeyID)
				}
				return "success", nil
			}

			resp, err := interceptor.UnaryServerInterceptor()(testCase.ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)

			assert.Equal(t, testCase.wantCode, status.Code(err))
			assert.Equal(t, testCase.wantCode == codes.OK, handlerCalled)
			if testCase.wantCode == codes.OK {
				assert.Equal(t, "success", resp)
			}
		})
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context {
	return s.ctx
}

func TestStreamServerInterceptor(t *testing.T) {
	key := testkeys.NewEC(t, "kid-ec")
	client := newTestClient(t, key)

	interceptor, err := New(client)
	require.NoError(t, err)

	t.Run("it wraps the stream context with the claims", func(t *testing.T) {
		stream := &fakeServerStream{ctx: incoming("Bearer " + key.Sign(t, testkeys.Claims(time.Now())))}

		err := interceptor.StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{FullMethod: testMethod}, func(_ any, ss grpc.ServerStream) error {
			claims, err := GetClaims(ss.Context())
			require.NoError(t, err)
			assert.Equal(t, "kid-ec", claims.KeyID)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("it rejects a stream signed by an unknown key", func(t *testing.T) {
		other := testkeys.NewEC(t, "kid-unknown")
		stream := &fakeServerStream{ctx: incoming("Bearer " + other.Sign(t, testkeys.Claims(time.Now())))}

		err := interceptor.StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{FullMethod: testMethod}, func(any, grpc.ServerStream) error {
			t.Fatal("handler should not be called")
			return nil
		})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}

func TestInterceptor_OverBufconn(t *testing.T) {
	key := testkeys.NewRSA(t, "kid-1")
	client := newTestClient(t, key)

	interceptor, err := New(client)
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(
		grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
		grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(server, health.NewServer())
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	healthClient := healthpb.NewHealthClient(conn)

	_, err = healthClient.Check(context.Background(), &healthpb.HealthCheckRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(
		context.Background(),
		"authorization", "Bearer "+key.Sign(t, testkeys.Claims(time.Now())),
	)
	resp, err := healthClient.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestNew(t *testing.T) {
	client := newTestClient(t, testkeys.NewRSA(t, "kid-1"))

	testCases := []struct {
		name    string
		options []Option
		wantErr string
	}{
		{name: "nil logger", options: []Option{WithLogger(nil)}, wantErr: "logger cannot be nil"},
		{name: "nil extractor", options: []Option{WithTokenExtractor(nil)}, wantErr: "token extractor cannot be nil"},
		{name: "nil error handler", options: []Option{WithErrorHandler(nil)}, wantErr: "error handler cannot be nil"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := New(client, testCase.options...)
			assert.EqualError(t, err, testCase.wantErr)
		})
	}

	t.Run("nil validator", func(t *testing.T) {
		_, err := New(nil)
		assert.EqualError(t, err, "validator cannot be nil")
	})

	t.Run("it reports extractor failures as unauthenticated", func(t *testing.T) {
		logger := jwkclient.NewLeveledLogger(jwkclient.NoopLogger{}, jwkclient.LogLevelDebug)
		interceptor, err := New(client, WithLogger(logger), WithTokenExtractor(func(context.Context) (string, error) {
			return "", errors.New("boom")
		}))
		require.NoError(t, err)

		_, err = interceptor.UnaryServerInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testMethod}, nil)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.NotErrorIs(t, err, core.ErrJWTMissing)
	})
}
