package server

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ar/cwgen/internal/observability"
)

const correlationHeader = "X-Correlation-ID"

// correlation tags each request with a correlation ID, attaches a logger
// carrying it to the request context, and logs the outcome
func correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = observability.NewCorrelationID()
		}
		w.Header().Set(correlationHeader, id)

		logger := observability.WithCorrelationID(id).With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

		logger.Info().
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("remote", r.RemoteAddr).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
