package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported next to the overall ("") status.
const ServiceName = "contacts"

const pingTimeout = 2 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 and tracks database reachability.
type HealthServer struct {
	*health.Server
	pinger Pinger
}

func NewHealthServer(pinger Pinger) *HealthServer {
	s := &HealthServer{
		Server: health.NewServer(),
		pinger: pinger,
	}
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Probe pings the database once and records the outcome.
func (s *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.PingContext(pingCtx); err != nil {
		logrus.WithError(err).Warn("Database ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.set(status)
	return status
}

// Monitor probes every interval until ctx is done, then marks the service as
// shutting down.
func (s *HealthServer) Monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Status returns the last recorded overall status.
func (s *HealthServer) Status(ctx context.Context) *healthpb.HealthCheckResponse {
	res, err := s.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_UNKNOWN}
	}
	return res
}

func (s *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.SetServingStatus("", status)
	s.SetServingStatus(ServiceName, status)
}
