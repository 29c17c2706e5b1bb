package api

import (
	"errors"
	"fmt"
)

// ErrOffline is returned by read calls issued while the connectivity
// signal is down. Reads are never queued: a stale cache read is
// preferable to inventing a value.
var ErrOffline = errors.New("offline")

// HTTPError means the server was reached and rejected the request.
// It is never converted into a queue entry - retrying a rejection
// unmodified would not help.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NetworkError means the call never produced a server response
// (timeout, connection reset, DNS failure). For mutations the
// dispatcher converts this into a durable queue entry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a delivery error should leave a queued
// entry in place for a future drain pass. Both network-level and
// HTTP-level failures count against the retry ceiling.
func IsRetryable(err error) bool {
	var nerr *NetworkError
	var herr *HTTPError
	return errors.As(err, &nerr) || errors.As(err, &herr)
}
