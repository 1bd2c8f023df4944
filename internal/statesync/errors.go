package statesync

import "errors"

var (
	// ErrBusy rejects a request submitted while another is still in
	// flight. The caller may retry once the first one settles.
	ErrBusy = errors.New("a request is already in flight")

	// ErrRequestFailed wraps a request-channel call that failed or
	// returned an error status. Never retried automatically.
	ErrRequestFailed = errors.New("backend request failed")
)
