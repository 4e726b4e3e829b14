package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned for 401 responses. Callers should send
	// the user through the login flow; retrying is pointless.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrDuplicateInvite is returned by SendInvite when the backend reports
	// the invite was already sent. It is informational, not a failure.
	ErrDuplicateInvite = errors.New("invite already sent")
)

// duplicateInviteMarker is the text the backend puts in the 400 body.
const duplicateInviteMarker = "Invite already sent"

// RequestFailedError is returned for any other non-2xx response.
type RequestFailedError struct {
	Status int
	Body   string
}

func (e *RequestFailedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if errors.Is(err, ErrUnauthenticated) {
		return 401
	}
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}
