package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"action-router/internal/model"
	"action-router/internal/service"
)

// secretParamPattern matches credential-like query values in URLs embedded in error messages.
var secretParamPattern = regexp.MustCompile(`(?i)((?:token|api_?key|secret)=)[^&\s"]+`)

// McpHandler is the delegate for POST /mcp. It forwards the request to the
// external MCP handler and streams the reply back; from the moment it is
// called it alone is responsible for the response.
type McpHandler struct {
	service *service.McpService
	logger  *slog.Logger
}

// NewMcpHandler creates an McpHandler.
func NewMcpHandler(svc *service.McpService, logger *slog.Logger) *McpHandler {
	return &McpHandler{
		service: svc,
		logger:  logger.With("component", "mcp_handler"),
	}
}

// Configured reports whether the handler has somewhere to forward to.
func (h *McpHandler) Configured() bool {
	return h != nil && h.service.Configured()
}

// ServeHTTP forwards r and copies the MCP handler's status, headers and body to w.
func (h *McpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fr := &model.ForwardRequest{
		Ctx:    r.Context(),
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header,
		Body:   r.Body,
	}

	resp, err := h.service.Forward(fr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	// Once the status is sent a failed copy can only truncate the reply.
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("streaming mcp response body",
			"err", err,
			"path", r.URL.Path,
		)
	}
}

func (h *McpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("mcp forward error",
		"err", sanitizeError(err),
		"path", r.URL.Path,
	)

	status := http.StatusInternalServerError
	body := service.DelegationFailedMessage
	var e *service.Error
	if errors.As(err, &e) {
		status = e.Kind.StatusCode()
		body = e.Body()
	}

	w.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// sanitizeError redacts credential-like query values from error messages.
func sanitizeError(err error) string {
	return secretParamPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}
