package api

import "errors"

// ErrUnauthorized is returned for every 401/403 regardless of what the
// backend put in the body. The message is fixed; interactive callers print
// it verbatim.
var ErrUnauthorized = errors.New("Unauthorized: Please login again.")

// StatusError is a non-2xx response other than an auth failure. Message is
// best-effort: the JSON message field when the body has one, the raw body
// text otherwise, or a generic string when the body is empty.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}
