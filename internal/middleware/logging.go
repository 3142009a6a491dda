package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"risk-assessment/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code and response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	// Capture response body for DEBUG logging
	if rw.body != nil {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs every request and records its latency.
// Bodies and query parameters are only logged at DEBUG. Completion is logged
// at WARN for 4xx and ERROR for 5xx.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)
		requestID := GetRequestID(r.Context())

		// Buffer the request body for DEBUG logging only
		var requestBody []byte
		var responseBodyBuffer *bytes.Buffer
		if debug {
			if r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			}
			responseBodyBuffer = &bytes.Buffer{}
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			written:        false,
			body:           responseBodyBuffer,
		}

		if debug {
			attrs := []any{
				"request_id", requestID,
				"remote_ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"method", r.Method,
				"path", r.URL.Path,
			}

			// Add query parameters
			if len(r.URL.Query()) > 0 {
				queryParams := make(map[string][]string)
				for key, values := range r.URL.Query() {
					queryParams[key] = values
				}
				attrs = append(attrs, "query_params", queryParams)
			}

			// Add request body (if present and non-empty)
			if len(requestBody) > 0 {
				attrs = append(attrs, "request_body", string(requestBody))
			}

			slog.Debug("Incoming request", attrs...)
		} else {
			slog.Info("Incoming request",
				"request_id", requestID,
				"remote_ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"method", r.Method,
				"path", r.URL.Path,
			)
		}

		// Call the next handler
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, strconv.Itoa(wrapped.statusCode)).
			Observe(duration.Seconds())

		// Determine log level based on status code
		var logLevel slog.Level
		var logMessage string

		if wrapped.statusCode >= 500 {
			logLevel = slog.LevelError
			logMessage = "Request failed with error"
		} else if wrapped.statusCode >= 400 {
			logLevel = slog.LevelWarn
			logMessage = "Request failed"
		} else {
			logLevel = slog.LevelInfo
			logMessage = "Request completed"
		}

		attrs := []any{
			"request_id", requestID,
			"remote_ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", duration.Milliseconds(),
		}

		if debug && responseBodyBuffer != nil {
			if responseBodyBuffer.Len() > 0 {
				attrs = append(attrs, "response_body", responseBodyBuffer.String())
			}
		}

		// Log with appropriate level
		slog.Log(r.Context(), logLevel, logMessage, attrs...)
	})
}
