package grpcapi

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/contract"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/payment"
	"github.com/spacefindr/core/internal/repository"
	"github.com/spacefindr/core/internal/spaces"
	"github.com/spacefindr/core/internal/vacancy"
)

// toStatus переводит доменную ошибку в код gRPC.
func toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var fieldErrs spaces.FieldErrors
	switch {
	case errors.Is(err, booking.ErrSpaceUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, booking.ErrInvalidDateRange), errors.Is(err, calendar.ErrInvalidDateRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, booking.ErrRentalDurationOutOfBounds):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, booking.ErrDateRangeConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, booking.ErrIllegalTransition),
		errors.Is(err, vacancy.ErrIllegalTransition),
		errors.Is(err, contract.ErrNotContractable),
		errors.Is(err, contract.ErrFinalized),
		errors.Is(err, payment.ErrDeclined):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, booking.ErrUnauthorized), errors.Is(err, vacancy.ErrUnauthorized):
		if _, ok := booking.ActorFrom(ctx); !ok {
			return status.Error(codes.Unauthenticated, err.Error())
		}
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, contract.ErrDocumentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, repository.ErrStaleBooking), errors.Is(err, repository.ErrStaleReport):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, lock.ErrNotAcquired):
		return status.Error(codes.Unavailable, err.Error())
	case errors.As(err, &fieldErrs), errors.Is(err, vacancy.ErrInvalidReport):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	log.Printf("grpc: internal error: %v", err)
	return status.Error(codes.Internal, "internal error")
}
