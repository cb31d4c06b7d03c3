// Package server serves the MCP tools over streamable HTTP alongside metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type server struct {
	srv    *http.Server
	logger *zap.Logger
}

// Handler routes /mcp to the tool server and /metrics to metrics.
func Handler(tools *mcp.Server, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return tools
	}, nil))
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return LoggingMiddleware(mux)
}

func New(addr string, tools *mcp.Server, metrics http.Handler) *server {
	return &server{
		srv: &http.Server{
			Handler:     Handler(tools, metrics),
			Addr:        addr,
			ReadTimeout: 15 * time.Second,
			// no WriteTimeout: /mcp streams server-sent events
		},
		logger: zap.L(),
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type stdio struct {
	tools *mcp.Server
}

// NewStdio serves tools over stdin/stdout. Run returns when the client closes stdin.
func NewStdio(tools *mcp.Server) *stdio {
	return &stdio{tools: tools}
}

func (s *stdio) Run(ctx context.Context) error {
	return s.tools.Run(ctx, &mcp.StdioTransport{})
}
