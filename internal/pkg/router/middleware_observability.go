package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"github.com/shandysiswandi/mindjournal/internal/pkg/config"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxLoggedBody caps how much of a request or response body is kept for logs.
const maxLoggedBody = 16 << 10

// quietRoutes are polled by orchestrators and only logged at debug level.
var quietRoutes = map[string]struct{}{"/health": {}}

// masker hides credential fields (password, code, access_token) in logged
// headers and JSON bodies.
type masker map[string]struct{}

func newMasker(cfg config.Config) masker {
	fields := slices.Clone(instrument.DefaultMaskFields)
	if cfg != nil {
		fields = append(fields, cfg.GetArray("instrument.log_mask_fields")...)
	}

	return lo.SliceToMap(fields, func(f string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(f)), struct{}{}
	})
}

func (m masker) hides(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m masker) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if m.hides(k) {
			out[k] = "***"
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

func (m masker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if m.hides(k) {
				out[k] = "***"
				continue
			}
			out[k] = m.value(item)
		}
		return out
	case []any:
		return lo.Map(val, func(item any, _ int) any { return m.value(item) })
	default:
		return v
	}
}

// body renders a JSON payload with secrets masked. The API only speaks JSON,
// so anything else is summarized by size.
func (m masker) body(raw []byte, truncated bool) any {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if !truncated && json.Unmarshal(raw, &v) == nil {
		return m.value(v)
	}

	return fmt.Sprintf("<%d bytes omitted>", len(raw))
}

// responseRecorder captures what the handler wrote so it can be logged and
// measured. Router.endpoint hands the handler error over through SetError.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	written   int
	body      bytes.Buffer
	truncated bool
	err       error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBody - w.body.Len(); room < len(p) {
		w.body.Write(p[:max(room, 0)])
		w.truncated = true
	} else {
		w.body.Write(p)
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// peekBody reads the head of the request body for logging and leaves r.Body
// readable from the start.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		return nil, false
	}

	//nolint:errcheck // logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))

	if len(head) > maxLoggedBody {
		return head[:maxLoggedBody], true
	}
	return head, false
}

func logLevel(route string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	if _, quiet := quietRoutes[route]; quiet {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newMasker(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests served"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("s"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ClientAddress(r.RemoteAddr),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			reqBody, reqTruncated := peekBody(r)
			if _, quiet := quietRoutes[route]; !quiet {
				slog.InfoContext(ctx, "request received",
					"method", r.Method,
					"path", route,
					"client_ip", r.RemoteAddr,
					"headers", mask.headers(r.Header),
					"body", mask.body(reqBody, reqTruncated),
				)
			}

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(attribute.Int("http.response.body.size", rec.written))
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
			}

			logAttrs := []any{
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.written,
				"latency_ms", elapsed.Milliseconds(),
				"body", mask.body(rec.body.Bytes(), rec.truncated),
			}
			if rec.err != nil {
				logAttrs = append(logAttrs, "error", rec.err)
			}
			slog.Log(ctx, logLevel(route, status), "response sent", logAttrs...)
		})
	}
}
