package controller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type healthStatusSource interface {
	Status(ctx context.Context) *healthpb.HealthCheckResponse
}

// HealthController renders the gRPC health status over HTTP.
type HealthController struct {
	health healthStatusSource
}

func NewHealthController(health healthStatusSource) *HealthController {
	return &HealthController{health: health}
}

func (c *HealthController) Health(ctx echo.Context) error {
	res := c.health.Status(ctx.Request().Context())
	code := http.StatusOK
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		code = http.StatusServiceUnavailable
	}
	return writeProtoJSON(ctx, code, res)
}
