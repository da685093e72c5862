package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a dispatch failure. Every kind maps to exactly one HTTP status.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindFailedToReadBody
	KindActionCallFailed
	KindHealthCheckFailed
	KindMcpForwardFailed
	KindDelegateToMcp
)

// DelegationFailedMessage is the body sent when the request could not be handed
// to the MCP handler. The underlying cause is logged, never returned.
const DelegationFailedMessage = "Internal error: MCP delegation failed"

// ErrMcpNotConfigured is returned when a request is routed to MCP but no
// delegate is available.
var ErrMcpNotConfigured = errors.New("mcp delegate is not configured")

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindFailedToReadBody:
		return "failed_to_read_body"
	case KindActionCallFailed:
		return "action_call_failed"
	case KindHealthCheckFailed:
		return "health_check_failed"
	case KindMcpForwardFailed:
		return "mcp_forward_failed"
	case KindDelegateToMcp:
		return "delegate_to_mcp"
	default:
		return "unknown"
	}
}

// StatusCode returns the HTTP status for a failure kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindInvalidInput, KindActionCallFailed, KindHealthCheckFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a dispatch failure carrying a client-visible message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Body returns the text written to the client for this failure.
func (e *Error) Body() string {
	if e.Kind == KindDelegateToMcp {
		return DelegationFailedMessage
	}
	return e.Msg
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Msg: err.Error(), Err: err}
}

// InvalidInput wraps a payload decoding failure.
func InvalidInput(err error) *Error { return newError(KindInvalidInput, err) }

// FailedToReadBody wraps a request body read failure.
func FailedToReadBody(err error) *Error { return newError(KindFailedToReadBody, err) }

// ActionCallFailed wraps a failure of the action-invocation service.
func ActionCallFailed(err error) *Error { return newError(KindActionCallFailed, err) }

// HealthCheckFailed wraps a failure of the health-check service.
func HealthCheckFailed(err error) *Error { return newError(KindHealthCheckFailed, err) }

// McpForwardFailed wraps a failure while forwarding to the MCP handler.
func McpForwardFailed(err error) *Error { return newError(KindMcpForwardFailed, err) }

// DelegateToMcpFailed wraps a local failure before handing off to MCP.
func DelegateToMcpFailed(err error) *Error { return newError(KindDelegateToMcp, err) }
