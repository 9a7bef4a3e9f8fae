package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/community-events/internal/failure"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *ErrorBody) Error() string {
	return e.Code + ": " + e.Message
}

func (e *ErrorBody) GetStatus() int {
	return e.Status
}

var kindStatus = map[failure.Kind]int{
	failure.KindUnauthorized:     http.StatusUnauthorized,
	failure.KindForbidden:        http.StatusForbidden,
	failure.KindNotFound:         http.StatusNotFound,
	failure.KindInvalidState:     http.StatusConflict,
	failure.KindCapacityExceeded: http.StatusConflict,
	failure.KindAlreadyDone:      http.StatusConflict,
	failure.KindTokenMismatch:    http.StatusUnprocessableEntity,
	failure.KindInvalidInput:     http.StatusBadRequest,
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(k failure.Kind) int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// renderError turns an operation error into a response. Typed failures keep
// their code; anything else is logged and hidden behind a 500.
func renderError(log *zap.Logger, err error) error {
	if f, ok := failure.As(err); ok {
		return &ErrorBody{
			Status:  StatusFor(f.Kind()),
			Code:    string(f.Code),
			Message: f.Message,
			Field:   f.Field,
		}
	}
	log.Error("request failed", zap.Error(err))
	return &ErrorBody{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL",
		Message: "Something went wrong, please try again later",
	}
}

// newHumaError renders huma's own request validation errors in the same
// shape as operation failures.
func newHumaError(status int, msg string, errs ...error) huma.StatusError {
	body := &ErrorBody{Status: status, Code: codeForStatus(status), Message: msg}
	for _, e := range errs {
		if d, ok := e.(*huma.ErrorDetail); ok {
			body.Field = d.Location
			if d.Message != "" {
				body.Message = d.Message
			}
			break
		}
	}
	return body
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(failure.CodeValidationFailed)
	case http.StatusUnauthorized:
		return string(failure.CodeUnauthorized)
	case http.StatusForbidden:
		return string(failure.CodeForbidden)
	case http.StatusNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}
