// Package grpc exposes the standard gRPC health service for internal
// callers. Its serving status follows the database probe.
package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health entry for the attendance API. The empty name
// reports overall server health and moves with it.
const ServiceName = "taptell.Attendance"

type Health struct {
	server *health.Server
}

func NewHealth() *Health {
	h := &Health{server: health.NewServer()}
	h.SetServing(false)
	return h
}

// SetServing flips both the overall and the named entry.
func (h *Health) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Shutdown reports NOT_SERVING to every watcher ahead of GracefulStop.
func (h *Health) Shutdown() {
	h.server.Shutdown()
}

// NewServer builds a gRPC server guarded by the service token with the
// health service registered.
func NewServer(serviceToken string, h *Health) (*grpc.Server, error) {
	unary, err := NewServiceAuthUnaryInterceptor(serviceToken)
	if err != nil {
		return nil, err
	}
	stream, err := NewServiceAuthStreamInterceptor(serviceToken)
	if err != nil {
		return nil, err
	}
	server := grpc.NewServer(grpc.UnaryInterceptor(unary), grpc.StreamInterceptor(stream))
	healthpb.RegisterHealthServer(server, h.server)
	return server, nil
}
