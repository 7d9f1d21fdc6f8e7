package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type TracingConfig struct {
	ServiceName    string
	Enabled        bool
	TracerProvider trace.TracerProvider // nil means the global provider
	// Untraced paths get no span. Probes hit /healthz and /readyz every few
	// seconds and would drown the interesting traces.
	Untraced []string
}

// DefaultUntraced are the probe endpoints.
var DefaultUntraced = []string{"/healthz", "/readyz"}

// Tracing opens a server span per request through otelgin. When disabled it
// is a pass-through.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	skip := make(map[string]struct{}, len(cfg.Untraced))
	for _, p := range cfg.Untraced {
		skip[p] = struct{}{}
	}
	opts := []otelgin.Option{
		otelgin.WithFilter(func(r *http.Request) bool {
			_, untraced := skip[r.URL.Path]
			return !untraced
		}),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher runs after Tracing. It tags the span with the request id and
// the acting operator, and marks 5xx responses as errors.
func SpanEnricher(actorHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		attrs := make([]attribute.KeyValue, 0, 2)
		if id := GetRequestID(c); id != "" {
			attrs = append(attrs, attribute.String("request_id", id))
		}
		if actor := c.GetHeader(actorHeader); actorHeader != "" && actor != "" {
			attrs = append(attrs, attribute.String("retail.actor", actor))
		}
		span.SetAttributes(attrs...)

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("gin.errors", c.Errors.String()))
		}
	}
}
