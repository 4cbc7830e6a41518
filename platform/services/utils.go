package services

import (
	"errors"
	"log/slog"
	"net/http"

	"cleanmaster_platform/platform/resources"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

// storeResponseCode maps resource store failures onto http statuses. The
// store's errors arrive tagged with the operation and record key, the message
// is passed through to the operator unchanged.
func storeResponseCode(err error) int {
	switch {
	case errors.Is(err, resources.ErrInvalidPayload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resources.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, resources.ErrTransportFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
