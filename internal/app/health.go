package app

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthModule serves grpc.health.v1 on the gRPC port. It reports
// NOT_SERVING until the lifecycle has started.
type HealthModule struct {
	server  *health.Server
	service string
}

func NewHealthModule(service string) *HealthModule {
	h := &HealthModule{server: health.NewServer(), service: service}
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.server.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthModule) RegisterGRPCService(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, h.server)
}

func (h *HealthModule) Start(ctx context.Context) error {
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.server.SetServingStatus(h.service, healthpb.HealthCheckResponse_SERVING)
	return nil
}

func (h *HealthModule) Stop(ctx context.Context) error {
	h.server.Shutdown()
	return nil
}
