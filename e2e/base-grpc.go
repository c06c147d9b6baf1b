package e2e

import (
	"context"
	"encoding/json"
	"estate-desk/auth"
	"estate-desk/domain"
	deskgrpc "estate-desk/grpc"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration, the suite is skipped without a desk to talk to.
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.DeskAddr == "" || s.Config.JWTSecret == "" {
		s.T().Skip("DESK_ADDR and JWT_SECRET are required for e2e scenarios")
	}
}

// GrpcClient connects as principal with logging, colors, and JSON debugging
func (s *BaseGrpcSuite) GrpcClient(t *testing.T, name string, principal domain.Principal) *deskgrpc.Client {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s (%s) ======", name, principal.Email)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	token, err := auth.GenerateToken([]byte(s.Config.JWTSecret), principal, time.Hour)
	s.Require().NoError(err)

	// 2. Create the client with a Unary Interceptor for logging
	client, err := deskgrpc.Dial(s.Config.DeskAddr, token,
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, toJSON(req))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, toJSON(reply))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.DeskAddr)
	return client
}

// As provides a client authenticated as principal within a contextual test step
func (s *BaseGrpcSuite) As(principal domain.Principal, name string, fn func(ctx context.Context, client *deskgrpc.Client)) {
	client := s.GrpcClient(s.T(), name, principal)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fn(ctx, client)
}

func toJSON(v any) string {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(bytes)
}
