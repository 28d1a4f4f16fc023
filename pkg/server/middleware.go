package server

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// loggingMiddleware logs method, path, status, response size and duration for
// every request. WebSocket upgrades are skipped; they hold the connection
// open for the session's lifetime.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		wrapper := &responseWriter{
			ResponseWriter: w,
			statusCode:     200, // Default status
		}

		start := time.Now()
		next.ServeHTTP(wrapper, r)

		log.Printf("%s %s -> %d (%d bytes, %v)",
			r.Method, r.URL.Path, wrapper.statusCode, wrapper.bytesWritten,
			time.Since(start).Round(time.Millisecond))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code and
// response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
