package auth

import (
	"context"
	"estate-desk/domain"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	authorizationHeader = "authorization"
	bearerPrefix        = "Bearer "
)

// UnaryInterceptor handles JWT validation for incoming unary calls.
func UnaryInterceptor(secret []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		principal, err := authenticate(ctx, secret)
		if err != nil {
			return nil, err
		}
		return handler(WithPrincipal(ctx, principal), req)
	}
}

// StreamInterceptor does the same for server streams, the enriched context
// is exposed through a wrapped stream.
func StreamInterceptor(secret []byte) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		principal, err := authenticate(ss.Context(), secret)
		if err != nil {
			return err
		}
		return handler(srv, &principalStream{ServerStream: ss, ctx: WithPrincipal(ss.Context(), principal)})
	}
}

type principalStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *principalStream) Context() context.Context { return s.ctx }

func authenticate(ctx context.Context, secret []byte) (domain.Principal, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.Principal{}, status.Error(codes.Unauthenticated, "metadata is missing")
	}

	values := md.Get(authorizationHeader)
	if len(values) == 0 {
		return domain.Principal{}, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	// Expecting the standard "Bearer <token>" format
	claims, err := ValidateToken(secret, strings.TrimPrefix(values[0], bearerPrefix))
	if err != nil {
		return domain.Principal{}, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return claims.Principal(), nil
}

// BearerToken attaches a token to every outgoing call.
type BearerToken struct {
	Token    string
	Insecure bool
}

func (b BearerToken) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	return map[string]string{authorizationHeader: bearerPrefix + b.Token}, nil
}

func (b BearerToken) RequireTransportSecurity() bool { return !b.Insecure }
