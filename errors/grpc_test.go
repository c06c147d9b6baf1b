package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapToGRPCError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"wrapped transition", fmt.Errorf("approve: %w", ErrInvalidTransition), codes.FailedPrecondition},
		{"empty content", ErrEmptyMessageContent, codes.InvalidArgument},
		{"missing appointment", fmt.Errorf("id 42: %w", ErrAppointmentNotFound), codes.NotFound},
		{"forbidden", ErrForbidden, codes.PermissionDenied},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", fmt.Errorf("list: %w", context.Canceled), codes.Canceled},
		{"unknown", stderrors.New("disk on fire"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, status.Code(MapToGRPCError(tt.err)))
		})
	}
}

func TestMapToGRPCError_KeepsExistingStatus(t *testing.T) {
	req := require.New(t)
	st := status.Error(codes.Unavailable, "try later")

	req.Equal(st, MapToGRPCError(st))
	req.NoError(MapToGRPCError(nil))
}

func TestFromGRPCError_RestoresSentinels(t *testing.T) {
	req := require.New(t)

	for _, m := range grpcMapping {
		req.ErrorIs(FromGRPCError(MapToGRPCError(fmt.Errorf("ctx: %w", m.err))), m.err)
	}
	req.ErrorIs(FromGRPCError(status.Error(codes.Unauthenticated, "invalid or expired token")), ErrUnauthenticated)

	unknown := status.Error(codes.Internal, "disk on fire")
	req.Equal(unknown, FromGRPCError(unknown))
	req.NoError(FromGRPCError(nil))
}
