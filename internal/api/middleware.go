package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"rentbook/internal/logging"
	"rentbook/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const requestInfoKey ctxKey = iota

const requestIDHeader = "X-Request-ID"

// requestInfo is filled in while the request travels down the chain and
// read back by the access log.
type requestInfo struct {
	requestID string
	uid       string
	authErr   error
}

func infoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

// principal returns the authenticated uid, empty for anonymous requests.
func principal(r *http.Request) string {
	return infoFrom(r.Context()).uid
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags the request with an id, stores a request-scoped logger
// in the context and writes one access log line per request. The stored
// logger carries no component so each layer can add its own.
func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			info := &requestInfo{requestID: requestID}
			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx := context.WithValue(r.Context(), requestInfoKey, info)
			ctx = reqLogger.WithContext(ctx)

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))
			dur := time.Since(start)

			route := routePattern(r)
			metrics.ObserveHTTP(route, r.Method, recorder.status, dur)

			accessLog := logging.Component(&reqLogger, "http")
			event := accessLog.Info()
			if recorder.status >= http.StatusInternalServerError {
				event = accessLog.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", recorder.status).
				Dur("duration", dur).
				Str("uid", info.uid).
				Msg("http request")
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

