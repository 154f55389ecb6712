package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// HTTPError is an error with a status code and a message that is safe to
// show to the client. The cause is only logged.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

func newHTTPError(code int, message string, cause error) *HTTPError {
	return &HTTPError{cause: cause, Code: code, Message: message}
}

func errBadRequest(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, cause)
}

func errUnauthorized(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, message, cause)
}

func errNotFound(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, cause)
}

func errUnprocessable(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusUnprocessableEntity, message, cause)
}

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNotAuthenticated   = "Could not validate credentials"
	msgInvalidToken       = "Invalid or expired token"
	msgTaskNotFound       = "Task not found"
	msgInternal           = "Internal Server Error"
)

// toHTTPError maps service sentinels to responses. Anything unrecognised
// becomes a 500 whose cause never reaches the client.
func toHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return errUnprocessable(err.Error(), err)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return errBadRequest(msgInvalidToken, err)
	case errors.Is(err, common.ErrorUnauthorized):
		return errUnauthorized(msgNotAuthenticated, err)
	case errors.Is(err, common.ErrForbidden):
		return newHTTPError(http.StatusForbidden, "Email not verified", err)
	case errors.Is(err, common.ErrorNotFound):
		return errNotFound("Not found", err)
	case errors.Is(err, common.ErrConflict):
		return newHTTPError(http.StatusConflict, "Already exists", err)
	case errors.Is(err, common.ErrBadRequest):
		return errBadRequest(err.Error(), err)
	default:
		return newHTTPError(http.StatusInternalServerError, msgInternal, err)
	}
}
