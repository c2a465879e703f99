package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type ctxKey string

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = ctxKey("request_id")
	loggerKey       = ctxKey("logger")
)

// NewRouter wires routes and the middleware chain:
// request id, access log, CORS, then the mux router.
func NewRouter(h *TextTransformHandler, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)(r)

	return withRequestID(logger, handlers.CustomLoggingHandler(io.Discard, corsHandler, accessLogFormatter(logger)))
}

// withRequestID propagates X-Request-Id or generates one, and stores a
// logger carrying it in the request context.
func withRequestID(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, loggerKey, base.With("request_id", requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func loggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// accessLogFormatter writes access lines through slog instead of the
// Apache format; the writer is ignored.
func accessLogFormatter(fallback *slog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		loggerFromContext(p.Request.Context(), fallback).Info("http request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"duration", time.Since(p.TimeStamp),
			"remote", p.Request.RemoteAddr,
		)
	}
}
