package server

import (
	"net/http"

	"go.uber.org/zap"
)

// sessionHeader carries the MCP session id on streamable HTTP requests.
const sessionHeader = "Mcp-Session-Id"

// LoggingMiddleware logs each request with its MCP session and reflects the
// caller's Origin so browser based agents can reach /mcp.
func LoggingMiddleware(next http.Handler) http.Handler {
	logger := zap.L()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields := []zap.Field{zap.String("method", r.Method)}
		if session := r.Header.Get(sessionHeader); session != "" {
			fields = append(fields, zap.String("session", session))
		}
		logger.Info(r.URL.Path, fields...)

		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", sessionHeader)
		}
		next.ServeHTTP(w, r)
	})
}
