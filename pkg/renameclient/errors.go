package renameclient

import "fmt"

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("renameclient: unexpected status %d: %s", e.StatusCode, e.Body)
}

// NoResponseError is returned when a request was sent but no response came
// back: connection refused, reset, timeout or cancellation.
type NoResponseError struct {
	Err error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("renameclient: no response: %v", e.Err)
}

func (e *NoResponseError) Unwrap() error { return e.Err }

// RequestError is returned when the request could not be built.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("renameclient: build request: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
