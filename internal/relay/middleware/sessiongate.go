package middleware

import (
	"log/slog"
	"net/http"
)

// NewSessionGate rejects upgrade requests that carry no session token.
// Tokens are opaque to the relay; presence is the only requirement.
func NewSessionGate(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok || reqMeta.SessionToken == "" {
				logger.Warn("Rejecting connection without session token",
					slog.String("ip", remoteIP(reqMeta)),
				)
				http.Error(w, "missing sessionToken", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(reqMeta *RequestMetadata) string {
	if reqMeta == nil {
		return ""
	}
	return reqMeta.IP
}
