package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"action-router/internal/client"
	"action-router/internal/config"
	"action-router/internal/model"
)

// maxUpstreamReplyBytes bounds how much of a collaborator's reply is read.
const maxUpstreamReplyBytes int64 = 1 << 20

// ActionInvoker runs an action and returns its textual result.
type ActionInvoker interface {
	Invoke(ctx context.Context, in model.ActionInput) (string, error)
}

// NewActionInvoker returns a RemoteInvoker when actions.invoke_url is set and
// a PreviewInvoker otherwise.
func NewActionInvoker(c *client.Upstream, cfg *config.Config, logger *slog.Logger) ActionInvoker {
	if cfg.Actions.InvokeURL == "" {
		return PreviewInvoker{}
	}
	return &RemoteInvoker{
		client: c,
		url:    cfg.Actions.InvokeURL,
		logger: logger.With("component", "action_invoker"),
	}
}

// PreviewInvoker describes the call it would make instead of making it.
type PreviewInvoker struct{}

// Invoke returns "Action <id> would be called with payload: <input>".
func (PreviewInvoker) Invoke(_ context.Context, in model.ActionInput) (string, error) {
	return fmt.Sprintf("Action %s would be called with payload: %s", in.ActionID, in.Payload.Input), nil
}

// RemoteInvoker posts the action to the action-invocation service. A 2xx reply
// body is the result; anything else is a KindActionCallFailed error.
type RemoteInvoker struct {
	client *client.Upstream
	url    string
	logger *slog.Logger
}

// Invoke calls the action-invocation service.
func (r *RemoteInvoker) Invoke(ctx context.Context, in model.ActionInput) (string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return "", ActionCallFailed(fmt.Errorf("encode action: %w", err))
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	resp, err := r.client.DoStream(ctx, client.TargetActions, http.MethodPost, r.url, header, bytes.NewReader(payload))
	if err != nil {
		return "", ActionCallFailed(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := ReadBody(resp.Body, maxUpstreamReplyBytes)
	if err != nil {
		return "", ActionCallFailed(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Warn("action call rejected",
			"action_id", in.ActionID,
			"status", resp.StatusCode,
		)
		return "", ActionCallFailed(upstreamStatusError("action service", resp.StatusCode, body))
	}

	return string(body), nil
}

func upstreamStatusError(who string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("%s returned %d: %s", who, status, msg)
}
