package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Map of methods that do not require JWT authentication.
var publicMethods = map[string]struct{}{
	healthpb.Health_Check_FullMethodName: {},
}

// publicOr skips the interceptor for public methods.
func publicOr(interceptor gogrpc.UnaryServerInterceptor) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if _, ok := publicMethods[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		return interceptor(ctx, req, info, handler)
	}
}
