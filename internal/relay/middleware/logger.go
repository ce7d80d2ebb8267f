package middleware

import (
	"log/slog"
	"net/http"
)

// NewRequestLogger creates a middleware that logs details about each incoming request.
func NewRequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			var ip, sessionToken string
			if ok {
				ip = reqMeta.IP
				sessionToken = reqMeta.SessionToken
			}

			logger.Info("Incoming HTTP request",
				slog.String("method", r.Method),
				slog.String("uri", r.URL.Path),
				slog.String("ip", ip),
				slog.String("sessionToken", sessionToken),
			)
			next.ServeHTTP(w, r)
		})
	}
}
