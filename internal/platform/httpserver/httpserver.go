// Package httpserver builds the *http.Server shared by the REST routes and
// the WebSocket endpoint.
package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
)

// New builds a server for handler. ReadTimeout and WriteTimeout stay unset:
// hijacked WebSocket connections outlive any fixed request deadline, and the
// socket layer enforces its own ping and write deadlines.
//
// Every request context derives from base, so cancelling base reaches
// long-lived handlers that ignore Shutdown. Server errors go to logger at
// WARN.
func New(base context.Context, addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
