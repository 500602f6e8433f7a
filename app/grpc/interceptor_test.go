package grpc_test

import (
	"context"
	"errors"
	"testing"

	contactsgrpc "github.com/vibast-solutions/ms-go-contacts/app/grpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoggingUnaryInterceptor_PassesThrough(t *testing.T) {
	interceptor := contactsgrpc.LoggingUnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	res, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	if err != nil || res != "ok" {
		t.Fatalf("expected ok, got %v %v", res, err)
	}

	want := status.Error(codes.NotFound, "unknown service")
	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
}

func TestLoggingUnaryInterceptor_RecoversPanics(t *testing.T) {
	interceptor := contactsgrpc.LoggingUnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected internal, got %v", err)
	}
}
