package metadata

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an extraction failure.
type Kind string

// Failure classes surfaced to callers.
const (
	KindContentType    Kind = "content_type"
	KindUpstreamStatus Kind = "upstream_status"
	KindTimeout        Kind = "timeout"
	KindInternal       Kind = "internal"
)

// Messages returned for fixed failure classes.
const (
	MsgTimeout     = "Request to upstream URL timed out"
	MsgNotHTML     = "URL did not return HTML content"
	MsgUnknownFail = "Unknown error occurred"
)

// Error is a classified extraction failure carrying the HTTP status the API
// should answer with.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

// Error returns the caller-facing message. The cause is reachable via Unwrap.
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a classified error from err. Unclassified errors are
// reported as internal failures.
func AsError(err error) *Error {
	var target *Error
	if errors.As(err, &target) {
		return target
	}
	return internalError(err)
}

func timeoutError(err error) *Error {
	return &Error{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Message: MsgTimeout, Err: err}
}

func upstreamStatusError(code int) *Error {
	return &Error{
		Kind:    KindUpstreamStatus,
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("Upstream error: %d %s", code, http.StatusText(code)),
	}
}

func contentTypeError(contentType string) *Error {
	return &Error{
		Kind:    KindContentType,
		Status:  http.StatusBadRequest,
		Message: MsgNotHTML,
		Err:     fmt.Errorf("content type %q", contentType),
	}
}

func internalError(err error) *Error {
	msg := MsgUnknownFail
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: msg, Err: err}
}
