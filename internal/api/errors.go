package api

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures where no envelope came back: the network call
// failed or the body was not JSON.
var ErrTransport = errors.New("transport error")

// Error is an application-level failure: the backend answered with
// success:false. Message is shown to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// Transport wraps err so that IsTransport reports true for it.
func Transport(err error) error {
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// IsTransport reports whether err is a transport-tier failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// Message extracts the user-facing message of an application-level failure.
func Message(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	return "", false
}
