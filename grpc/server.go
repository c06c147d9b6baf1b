package grpc

import (
	"estate-desk/auth"
	"log/slog"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds the gRPC server of the desk.
// Every call is authenticated, the health service is the only public one.
func NewServer(log *slog.Logger, secret []byte,
	appointments *AppointmentServer, messages *MessageServer) (*gogrpc.Server, *health.Server) {
	server := gogrpc.NewServer(
		gogrpc.ChainUnaryInterceptor(publicOr(auth.UnaryInterceptor(secret))),
		gogrpc.ChainStreamInterceptor(auth.StreamInterceptor(secret)),
	)
	server.RegisterService(&AppointmentServiceDesc, appointments)
	server.RegisterService(&MessageServiceDesc, messages)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(AppointmentServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(MessageServiceName, healthpb.HealthCheckResponse_SERVING)

	log.Debug("gRPC services registered", "services", []string{AppointmentServiceName, MessageServiceName})
	return server, healthServer
}
