package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
)

const invalidCredentialsMessage = "Invalid username or password."

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrorInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorConstraintViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrorTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrorUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing text. Server-side failures carry only
// the status text; details stay in the log.
func messageFor(err error, status int) string {
	switch {
	case errors.Is(err, common.ErrorInvalidCredentials):
		return invalidCredentialsMessage
	case status >= http.StatusInternalServerError:
		return http.StatusText(status)
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Message: messageFor(err, status), Status: status}})
}
