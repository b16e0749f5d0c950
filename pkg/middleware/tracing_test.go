package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installSpanRecorder swaps in a synchronous in-memory exporter and restores
// the previous global provider when the test ends.
func installSpanRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

// tracedRequest serves one request through the Tracing middleware with the
// handler responding with the given status.
func tracedRequest(t *testing.T, path string, status int, mutate func(*http.Request)) (*tracetest.InMemoryExporter, *httptest.ResponseRecorder) {
	t.Helper()

	exporter := installSpanRecorder(t)

	r := chi.NewRouter()
	r.Use(Tracing("test-service"))
	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return exporter, rec
}

func TestTracing_CreatesServerSpan(t *testing.T) {
	exporter, rec := tracedRequest(t, "/api/v1/products", http.StatusOK, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, "GET /api/v1/products", spans[0].Name)
}

func TestTracing_RecordsStatusCode(t *testing.T) {
	exporter, _ := tracedRequest(t, "/not-found", http.StatusNotFound, nil)

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)

	var got int64 = -1
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == "http.status_code" {
			got = attr.Value.AsInt64()
		}
	}
	assert.EqualValues(t, http.StatusNotFound, got)
}

func TestTracing_ServerError_MarksSpanFailed(t *testing.T) {
	exporter, _ := tracedRequest(t, "/error", http.StatusInternalServerError, nil)

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.EqualValues(t, 1, spans[0].Status.Code)
}

func TestTracing_HonorsInboundTraceParent(t *testing.T) {
	exporter, rec := tracedRequest(t, "/traced", http.StatusOK, func(req *http.Request) {
		req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	})

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}

func TestTracing_InjectsResponseHeaders(t *testing.T) {
	_, rec := tracedRequest(t, "/inject", http.StatusOK, nil)
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
