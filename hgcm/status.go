package hgcm

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/jathurchan/guestprop/property"
)

// ToStatus converts a service or dispatcher error into the status a call is
// completed with. A nil error yields OK.
func ToStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}

	var validationErr *ValidationError
	var rateLimitErr *RateLimitError
	var overflowErr *property.BufferOverflowError

	switch {
	case errors.As(err, &validationErr):
		return withDetails(codes.InvalidArgument, validationErr.Message, &errdetails.ErrorInfo{
			Reason:   ReasonInvalidParameter,
			Domain:   ErrorDomain,
			Metadata: map[string]string{MetadataField: validationErr.Field},
		})
	case errors.As(err, &rateLimitErr):
		return withDetails(codes.ResourceExhausted, err.Error(),
			errorInfo(ReasonRateLimited),
			&errdetails.RetryInfo{RetryDelay: durationpb.New(rateLimitErr.RetryAfter)},
		)
	case errors.As(err, &overflowErr):
		return withDetails(codes.OutOfRange, err.Error(), &errdetails.ErrorInfo{
			Reason:   ReasonBufferOverflow,
			Domain:   ErrorDomain,
			Metadata: map[string]string{MetadataRequiredSize: strconv.Itoa(overflowErr.Required)},
		})
	case errors.Is(err, property.ErrInvalidParameter):
		return withDetails(codes.InvalidArgument, err.Error(), errorInfo(ReasonInvalidParameter))
	case errors.Is(err, property.ErrPermissionDenied):
		return withDetails(codes.PermissionDenied, err.Error(), errorInfo(ReasonPermissionDenied))
	case errors.Is(err, property.ErrGuestReadOnlyWarning):
		return withDetails(codes.FailedPrecondition, err.Error(), errorInfo(ReasonGuestReadOnly))
	case errors.Is(err, property.ErrNotFound):
		return withDetails(codes.NotFound, err.Error(), errorInfo(ReasonNotFound))
	case errors.Is(err, property.ErrTooMuchData):
		return withDetails(codes.ResourceExhausted, err.Error(), errorInfo(ReasonTooMuchData))
	case errors.Is(err, property.ErrTooManyWaiters):
		return withDetails(codes.ResourceExhausted, err.Error(), errorInfo(ReasonTooManyWaiters))
	case errors.Is(err, property.ErrOutOfMemory):
		return withDetails(codes.ResourceExhausted, err.Error(), errorInfo(ReasonOutOfMemory))
	case errors.Is(err, property.ErrInterrupted):
		return status.New(codes.Aborted, err.Error())
	case errors.Is(err, property.ErrServiceClosed), errors.Is(err, ErrDispatcherClosed):
		return status.New(codes.Unavailable, err.Error())
	case errors.Is(err, ErrUnknownFunction):
		return status.New(codes.Unimplemented, err.Error())
	case errors.Is(err, ErrUnknownClient):
		return status.New(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrTooManyClients):
		return status.New(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrClientExists):
		return status.New(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, err.Error())
	default:
		return status.New(codes.Internal, err.Error())
	}
}

func errorInfo(reason string) *errdetails.ErrorInfo {
	return &errdetails.ErrorInfo{Reason: reason, Domain: ErrorDomain}
}

func withDetails(code codes.Code, msg string, details ...protoadapt.MessageV1) *status.Status {
	st := status.New(code, msg)
	withInfo, err := st.WithDetails(details...)
	if err != nil {
		return st
	}
	return withInfo
}

// ToError converts a completion status back into the error vocabulary of the
// property package so callers can use errors.Is. An OK status yields nil.
func ToError(st *status.Status) error {
	if st == nil || st.Code() == codes.OK {
		return nil
	}

	var (
		info  *errdetails.ErrorInfo
		retry *errdetails.RetryInfo
	)
	for _, d := range st.Details() {
		switch v := d.(type) {
		case *errdetails.ErrorInfo:
			info = v
		case *errdetails.RetryInfo:
			retry = v
		}
	}

	if info != nil {
		switch info.GetReason() {
		case ReasonBufferOverflow:
			required, err := strconv.Atoi(info.GetMetadata()[MetadataRequiredSize])
			if err == nil {
				return &property.BufferOverflowError{Required: required}
			}
			return property.ErrBufferOverflow
		case ReasonRateLimited:
			rl := &RateLimitError{}
			if retry != nil {
				rl.RetryAfter = retry.GetRetryDelay().AsDuration()
			}
			return rl
		case ReasonInvalidParameter:
			return fmt.Errorf("%w: %s", property.ErrInvalidParameter, st.Message())
		case ReasonPermissionDenied:
			return property.ErrPermissionDenied
		case ReasonGuestReadOnly:
			return property.ErrGuestReadOnlyWarning
		case ReasonNotFound:
			return property.ErrNotFound
		case ReasonTooMuchData:
			return property.ErrTooMuchData
		case ReasonTooManyWaiters:
			return property.ErrTooManyWaiters
		case ReasonOutOfMemory:
			return property.ErrOutOfMemory
		}
	}

	switch st.Code() {
	case codes.Aborted:
		return property.ErrInterrupted
	case codes.Unavailable:
		return property.ErrServiceClosed
	case codes.Unimplemented:
		return ErrUnknownFunction
	case codes.FailedPrecondition:
		return ErrUnknownClient
	case codes.AlreadyExists:
		return ErrClientExists
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Canceled:
		return context.Canceled
	default:
		return st.Err()
	}
}
