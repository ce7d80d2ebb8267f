package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Teyk0o/wwsnb/internal/relay/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestRequestMetadataCapturesSessionToken(t *testing.T) {
	var got *middleware.RequestMetadata
	handler := middleware.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = middleware.ReqMetadataFrom(r.Context())
		}),
		middleware.RequestMetadataMiddleware(),
	)

	req := httptest.NewRequest(http.MethodGet, "/ws?sessionToken=abc123", nil)
	req.RemoteAddr = "192.0.2.7:5000"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("metadata missing from request context")
	}
	if got.SessionToken != "abc123" {
		t.Errorf("SessionToken = %q, want %q", got.SessionToken, "abc123")
	}
	if got.IP != "192.0.2.7" {
		t.Errorf("IP = %q, want %q", got.IP, "192.0.2.7")
	}
}

func TestRequestLoggerEmitsSessionToken(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		middleware.RequestMetadataMiddleware(),
		middleware.NewRequestLogger(logger),
	)

	req := httptest.NewRequest(http.MethodGet, "/ws?sessionToken=abc123", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "sessionToken=abc123") {
		t.Errorf("request log lacks the session token: %s", buf.String())
	}
}

func TestSessionGateRejectsMissingToken(t *testing.T) {
	handler := middleware.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		}),
		middleware.RequestMetadataMiddleware(),
		middleware.NewSessionGate(discardLogger()),
	)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSessionGatePassesWithToken(t *testing.T) {
	reached := false
	handler := middleware.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}),
		middleware.RequestMetadataMiddleware(),
		middleware.NewSessionGate(discardLogger()),
	)

	req := httptest.NewRequest(http.MethodGet, "/ws?sessionToken=abc123", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !reached {
		t.Error("handler was not reached with a valid token")
	}
}
