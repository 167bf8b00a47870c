package preflight

import (
	"context"
	"net"
	"strings"

	"readalong/internal/config"
)

// CheckServerFromConfig probes the server at the configured bind address.
// Wildcard hosts are probed on loopback.
func CheckServerFromConfig(ctx context.Context, cfg *config.Config) Result {
	if cfg == nil {
		return Result{Name: "API server", Optional: true, Detail: "Unknown"}
	}
	return CheckServer(ctx, ServerURL(cfg.Paths.APIBind), cfg.Paths.APIToken)
}

// ServerURL turns a bind address into a base URL clients can reach.
func ServerURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return ""
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
