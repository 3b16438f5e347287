package research

import "fmt"

const (
	msgHTTPFailed      = "Failed to get research results"
	msgOperationFailed = "Research operation failed"
	msgTransportFailed = "An error occurred while fetching research results"
)

// RequestFailedError is the single error kind returned by Client.Send. Message
// is meant to be shown to the user as is.
type RequestFailedError struct {
	Message string
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	Err        error
}

func (e *RequestFailedError) Error() string {
	return e.Message
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

func requestFailed(status int, serverMsg, fallback string) *RequestFailedError {
	msg := serverMsg
	if msg == "" {
		msg = fallback
	}
	return &RequestFailedError{Message: msg, StatusCode: status}
}

func transportFailed(status int, format string, err error) *RequestFailedError {
	msg := fmt.Sprintf(format, err)
	if err == nil || err.Error() == "" {
		msg = msgTransportFailed
	}
	return &RequestFailedError{Message: msg, StatusCode: status, Err: err}
}
