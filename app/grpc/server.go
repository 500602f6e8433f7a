package grpc

import (
	gogrpc "google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewServer builds the operator-facing gRPC server. It only carries the
// standard health service.
func NewServer(healthServer *HealthServer, opts ...gogrpc.ServerOption) *gogrpc.Server {
	opts = append(opts,
		gogrpc.ChainUnaryInterceptor(LoggingUnaryInterceptor()),
		gogrpc.ChainStreamInterceptor(LoggingStreamInterceptor()),
	)

	server := gogrpc.NewServer(opts...)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	return server
}
