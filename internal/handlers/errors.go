package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"webm2mp4/internal/metrics"
	"webm2mp4/internal/startup"
)

// Error kinds returned to clients. Each maps to one HTTP status.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrInternal             = errors.New("internal error")
)

// requestError pairs an error kind with the message shown to the client.
type requestError struct {
	kind    error
	message string
	cause   error
}

func newRequestError(kind error, message string, cause error) error {
	return &requestError{kind: kind, message: message, cause: cause}
}

func (e *requestError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *requestError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func tooLarge(limit int64, cause error) error {
	return newRequestError(ErrPayloadTooLarge,
		fmt.Sprintf("File too large. Maximum size is %s.", startup.FormatBytes(limit)), cause)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return metrics.OutcomeBadRequest
	case errors.Is(err, ErrUnsupportedMediaType):
		return metrics.OutcomeUnsupportedType
	case errors.Is(err, ErrPayloadTooLarge):
		return metrics.OutcomePayloadTooLarge
	default:
		return metrics.OutcomeInternalError
	}
}

func clientMessage(err error) string {
	var re *requestError
	if errors.As(err, &re) {
		return re.message
	}
	return http.StatusText(http.StatusInternalServerError)
}

// writeError sends err to the client as plain text with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	http.Error(w, clientMessage(err), statusFor(err))
}
