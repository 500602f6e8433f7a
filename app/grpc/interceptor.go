package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func LoggingUnaryInterceptor() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (res any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("method", info.FullMethod).Errorf("Panic in grpc handler: %v", r)
				err = status.Error(codes.Internal, "internal server error")
			}
			logCall(info.FullMethod, start, err)
		}()

		return handler(ctx, req)
	}
}

func LoggingStreamInterceptor() gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, info *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(info.FullMethod, start, err)
		return err
	}
}

func logCall(method string, start time.Time, err error) {
	entry := logrus.WithFields(logrus.Fields{
		"method":   method,
		"code":     status.Code(err).String(),
		"duration": time.Since(start).String(),
	})
	if err != nil && status.Code(err) != codes.Canceled {
		entry.WithError(err).Warn("grpc call failed")
		return
	}
	entry.Debug("grpc call")
}
