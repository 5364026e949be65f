package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts domain/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, ErrInvalidParameters),
		errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrInvalidDuration):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrInsufficientPayment):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrNotRegistered):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, ErrNoVerifiedInterests):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrWithdrawalFailed),
		errors.Is(err, ErrVerificationFailed):
		return status.Error(codes.Aborted, err.Error())

	case errors.Is(err, ErrCollaboratorNotConfigured):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in transport-facing code for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
