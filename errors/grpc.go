package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// grpcMapping is ordered: the first sentinel matched by errors.Is wins.
var grpcMapping = []struct {
	err  error
	code codes.Code
}{
	{ErrInvalidTransition, codes.FailedPrecondition},
	{ErrMissingReason, codes.InvalidArgument},
	{ErrInvalidDateTime, codes.InvalidArgument},
	{ErrEmptyMessageContent, codes.InvalidArgument},
	{ErrSelfConversation, codes.InvalidArgument},
	{ErrUnknownStatus, codes.InvalidArgument},
	{ErrUnknownRole, codes.InvalidArgument},
	{ErrInvalidRequest, codes.InvalidArgument},
	{ErrAppointmentNotFound, codes.NotFound},
	{ErrPropertyNotFound, codes.NotFound},
	{ErrProfileNotFound, codes.NotFound},
	{ErrForbidden, codes.PermissionDenied},
	{ErrUnauthenticated, codes.Unauthenticated},
}

// MapToGRPCError converts a domain error into a gRPC status error.
// The sentinel message is used as the status message so that the client side
// can restore it with FromGRPCError.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	for _, m := range grpcMapping {
		if stderrors.Is(err, m.err) {
			return status.Error(m.code, m.err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// FromGRPCError restores the domain sentinel carried by a gRPC status.
// Unknown statuses are returned untouched.
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, m := range grpcMapping {
		if st.Code() == m.code && st.Message() == m.err.Error() {
			return m.err
		}
	}
	if st.Code() == codes.Unauthenticated {
		return fmt.Errorf("%w: %s", ErrUnauthenticated, st.Message())
	}
	return err
}
