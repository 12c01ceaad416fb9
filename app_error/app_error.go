package app_error

import "errors"

type statusError struct {
	error
	status int
}

func (e statusError) Unwrap() error {
	return e.error
}

// New attaches an HTTP status to err for the controller layer to render.
func New(err error, status int) error {
	return statusError{error: err, status: status}
}

// HTTPStatus returns the status attached to err, or fallback when none is.
func HTTPStatus(err error, fallback int) int {
	var se statusError
	if errors.As(err, &se) {
		return se.status
	}
	return fallback
}
