//go:build wasip2

package main

import (
	"log/slog"
	"os"

	"go.wasmcloud.dev/component/net/wasihttp"

	"action-router/internal/component"
)

// mcpForwardURL is set with -ldflags "-X main.mcpForwardURL=...".
// Empty means component.DefaultMcpURL.
var mcpForwardURL string

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	// Outbound calls leave the component through the host's outgoing-handler.
	e, err := component.New(component.Options{
		McpForwardURL: mcpForwardURL,
		Transport:     &wasihttp.Transport{},
	}, logger)
	if err != nil {
		logger.Error("building router", "err", err)
		os.Exit(1)
	}

	wasihttp.Handle(e)
}

// The host drives the component through the exported incoming-handler, so
// main never runs anything.
func main() {}
