package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

const CorrelationHeader = "X-Correlation-ID"

// Correlation propagates the caller's correlation id, or a new one, into the request context and
// the request logger. Must run after Logger.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(CorrelationHeader)
		if id == "" {
			id = resilience.NewCorrelationID()
		}
		w.Header().Set(CorrelationHeader, id)

		ctx := resilience.WithCorrelationID(req.Context(), id)
		reqLogger := zerolog.Ctx(ctx).With().Str("correlation_id", id).Logger()
		ctx = reqLogger.WithContext(ctx)

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
