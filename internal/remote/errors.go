package remote

import (
	"errors"
	"fmt"
)

// RejectionError reports that the remote API received the request and turned
// it down (validation failure, expired auth, server fault with a status).
// Retrying an identical request will not succeed, so write paths surface it
// to the caller instead of queueing.
type RejectionError struct {
	Status int
	Body   []byte
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("remote rejected request: status %d", e.Status)
}

// IsNetworkError reports whether a failed call is network-class: the request
// produced no response at all (timeout, connection refused, DNS failure).
// The classification rule is presence-of-a-response: any failure that is not
// a RejectionError counts as network-class and is safe to queue for replay.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var rejection *RejectionError
	return !errors.As(err, &rejection)
}
