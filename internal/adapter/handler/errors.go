package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stock-count/internal/auth"
	"github.com/rl1809/stock-count/internal/core/domain"
)

var errUnauthenticated = errors.New("authentication required")

// httpError maps err to a status code and a body. Internal failures are not
// described to the caller.
func httpError(err error) (int, ErrorResponse) {
	if isAuthError(err) {
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "UNAUTHENTICATED"}
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"}
	}

	resp := ErrorResponse{Error: de.Message, Code: de.Kind.String(), Reason: string(de.Reason)}
	switch de.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest, resp
	case domain.KindNotFound:
		return http.StatusNotFound, resp
	case domain.KindAccessDenied:
		return http.StatusForbidden, resp
	case domain.KindInvalidState:
		return http.StatusConflict, resp
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"}
	}
}

// grpcError converts err to a gRPC status error.
func grpcError(err error) error {
	if isAuthError(err) {
		return status.Error(codes.Unauthenticated, err.Error())
	}

	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			return status.Error(codes.InvalidArgument, de.Message)
		case domain.KindNotFound:
			return status.Error(codes.NotFound, de.Message)
		case domain.KindAccessDenied:
			return status.Error(codes.PermissionDenied, de.Message)
		case domain.KindInvalidState:
			return status.Error(codes.FailedPrecondition, de.Message)
		}
	}
	return status.Error(codes.Internal, "internal error")
}

func isAuthError(err error) bool {
	return errors.Is(err, errUnauthenticated) ||
		errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken)
}
