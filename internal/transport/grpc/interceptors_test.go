package grpcx

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/rpccontract"
)

func okHandler(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

func TestAuthInterceptorRejectsWriteWithoutToken(t *testing.T) {
	interceptor := AuthUnaryInterceptor("secret")
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{
		FullMethod: rpccontract.MethodSavePreset,
	}, okHandler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %s", status.Code(err))
	}
}

func TestAuthInterceptorAllowsReadsWithoutToken(t *testing.T) {
	interceptor := AuthUnaryInterceptor("secret")
	if _, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{
		FullMethod: rpccontract.MethodListPresets,
	}, okHandler); err != nil {
		t.Fatalf("read method should pass without a token, got %v", err)
	}
}

func TestAuthInterceptorAcceptsMetadataToken(t *testing.T) {
	interceptor := AuthUnaryInterceptor("secret")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-deskhub-token", "secret"))
	if _, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{
		FullMethod: rpccontract.MethodSavePreset,
	}, okHandler); err != nil {
		t.Fatalf("expected token to be accepted, got %v", err)
	}
}

func TestAuthInterceptorAcceptsBearerHeader(t *testing.T) {
	interceptor := AuthUnaryInterceptor("secret")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer secret"))
	if _, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{
		FullMethod: rpccontract.MethodRecordCost,
	}, okHandler); err != nil {
		t.Fatalf("expected bearer token to be accepted, got %v", err)
	}
}

func TestAuthInterceptorDisabledWithEmptyToken(t *testing.T) {
	interceptor := AuthUnaryInterceptor("")
	if _, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{
		FullMethod: rpccontract.MethodSavePreset,
	}, okHandler); err != nil {
		t.Fatalf("auth should be disabled without a configured token, got %v", err)
	}
}

func TestErrorInterceptorMapsAppErrors(t *testing.T) {
	interceptor := ErrorUnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: rpccontract.MethodGetPreset}

	cases := []struct {
		err  error
		want codes.Code
	}{
		{domain.NotFound("preset not found"), codes.NotFound},
		{domain.InvalidArgument("id is required"), codes.InvalidArgument},
		{domain.Conflict("already exists"), codes.AlreadyExists},
		{domain.Internal("boom", nil), codes.Internal},
		{errors.New("untyped"), codes.Internal},
	}
	for _, tc := range cases {
		_, err := interceptor(context.Background(), nil, info, func(_ context.Context, _ any) (any, error) {
			return nil, tc.err
		})
		if status.Code(err) != tc.want {
			t.Errorf("error %v mapped to %s, want %s", tc.err, status.Code(err), tc.want)
		}
	}
}

func TestErrorInterceptorPassesThroughStatusErrors(t *testing.T) {
	interceptor := ErrorUnaryInterceptor()
	want := status.Error(codes.DeadlineExceeded, "too slow")
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{
		FullMethod: rpccontract.MethodGetHealth,
	}, func(_ context.Context, _ any) (any, error) {
		return nil, want
	})
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("status error should pass through, got %s", status.Code(err))
	}
}

func TestRecoveryInterceptorConvertsPanics(t *testing.T) {
	interceptor := RecoveryUnaryInterceptor()
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{
		FullMethod: rpccontract.MethodGetHealth,
	}, func(_ context.Context, _ any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal after panic, got %s", status.Code(err))
	}
}
