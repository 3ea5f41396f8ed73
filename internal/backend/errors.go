package backend

import (
	"errors"
	"fmt"
	"strings"
)

const genericMessage = "Something went wrong. Please try again."

// BackendError is implemented by every error the dashboard clients return.
// UserMessage is safe to show in the UI.
type BackendError interface {
	error
	UserMessage() string
}

// TransportError covers failures before any HTTP status was received:
// connection refused, DNS, TLS, and the request timeout.
type TransportError struct {
	Op      string
	Err     error
	timeout bool
}

func (e *TransportError) Error() string {
	if e.timeout {
		return fmt.Sprintf("%s: request timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Timeout() bool { return e.timeout }

func (e *TransportError) UserMessage() string {
	if e.timeout {
		return "The analysis service did not respond in time. Please try again."
	}
	return "Could not reach the analysis service. Please try again."
}

// StatusError is a non-2xx reply. Detail holds whatever the backend said.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Detail)
}

func (e *StatusError) UserMessage() string {
	if e.Detail == "" {
		return genericMessage
	}
	return fmt.Sprintf("The analysis service rejected the request (HTTP %d): %s", e.StatusCode, e.Detail)
}

// MalformedResponseError is a 2xx reply missing required fields or carrying
// them with the wrong shape. It points at a client/backend version mismatch.
type MalformedResponseError struct {
	Op    string
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": malformed response")
	if e.Field != "" {
		b.WriteString(": field ")
		b.WriteString(e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) UserMessage() string { return genericMessage }

// ValidationError rejects a request locally; nothing was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) UserMessage() string {
	if e.Reason == "" {
		return "Invalid input."
	}
	return strings.ToUpper(e.Reason[:1]) + e.Reason[1:] + "."
}

func Missing(op, field string) *MalformedResponseError {
	return &MalformedResponseError{Op: op, Field: field, Err: errors.New("missing")}
}

// UserMessage extracts a displayable message from any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var be BackendError
	if errors.As(err, &be) {
		return be.UserMessage()
	}
	return genericMessage
}

func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout()
}
