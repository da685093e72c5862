// Package model defines the values passed between the router's layers.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ActionPayload is the nested payload of an action request.
type ActionPayload struct {
	Input string `json:"input"`
}

// ActionInput is the decoded body of POST /actions.
type ActionInput struct {
	ActionID string        `json:"action_id"`
	Payload  ActionPayload `json:"payload"`
}

// Response is a fully built reply: a status code and a UTF-8 body.
type Response struct {
	Status int
	Body   string
}

// NewResponse creates a Response.
func NewResponse(status int, body string) Response {
	return Response{Status: status, Body: body}
}

// Result is what dispatch produces: either a Response to send, or a signal
// that the untouched request belongs to the MCP handler.
type Result struct {
	response Response
	delegate bool
}

// Respond wraps a Response as a terminal Result.
func Respond(r Response) Result {
	return Result{response: r}
}

// Delegate returns a Result that hands the request to the MCP handler.
func Delegate() Result {
	return Result{delegate: true}
}

// Delegated reports whether the request must be forwarded.
func (r Result) Delegated() bool { return r.delegate }

// Response returns the reply. It is the zero Response for delegated results.
func (r Result) Response() Response { return r.response }

// ForwardRequest is a request handed to the external MCP handler.
type ForwardRequest struct {
	Ctx    context.Context
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.ReadCloser
}

// ForwardResponse is the MCP handler's reply, streamed back to the caller.
type ForwardResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
