// Package middleware provides HTTP middleware for PlanForge.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/PlanForge/internal/logger"
)

// HeaderRequestID carries the request ID on requests, responses and queue
// messages.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID is HTTP middleware that takes X-Request-ID from the request or
// generates a UUID. The ID is stored in the context for logging and echoed
// on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
