package otel

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPMiddleware returns a chi-compatible middleware that creates spans for
// HTTP requests. Spans are named after the matched route pattern, so ids in
// the path do not explode span cardinality.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return otelhttp.NewMiddleware(serviceName, otelhttp.WithSpanNameFormatter(routeSpanName))
}

// routeSpanName is consulted when the span starts and again once the handler
// has returned and the router has recorded the matched pattern. chi keeps the
// full pattern across mounted sub-routers, r.Pattern only the innermost one.
func routeSpanName(operation string, r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return r.Method + " " + p
		}
	}
	if r.Pattern != "" {
		return r.Method + " " + r.Pattern
	}
	return operation
}
