package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findMetric collects c and returns the first metric matching all labels.
func findMetric(c prometheus.Collector, labels map[string]string) *dto.Metric {
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

next:
	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		got := make(map[string]string, len(d.GetLabel()))
		for _, lp := range d.GetLabel() {
			got[lp.GetName()] = lp.GetValue()
		}
		for k, v := range labels {
			if got[k] != v {
				continue next
			}
		}
		return d
	}
	return nil
}

func metricsRouter(service string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/items/{id}", handler)
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	router := metricsRouter("count-svc", func(w http.ResponseWriter, r *http.Request) {})

	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	// Three distinct ids collapse into one /items/{id} series.
	m := findMetric(httpRequestsTotal, map[string]string{
		"service": "count-svc", "method": "GET", "path": "/items/{id}", "status": "200",
	})
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m.GetCounter().GetValue(), float64(3))
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	router := metricsRouter("hist-svc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/9", nil))

	m := findMetric(httpRequestDuration, map[string]string{
		"service": "hist-svc", "path": "/items/{id}", "status": "201",
	})
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestPrometheusMetrics_InFlightGauge(t *testing.T) {
	seen := float64(-1)
	router := metricsRouter("inflight-svc", func(w http.ResponseWriter, r *http.Request) {
		if m := findMetric(httpRequestsInFlight, map[string]string{"service": "inflight-svc"}); m != nil {
			seen = m.GetGauge().GetValue()
		}
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	assert.GreaterOrEqual(t, seen, float64(1))

	after := findMetric(httpRequestsInFlight, map[string]string{"service": "inflight-svc"})
	require.NotNil(t, after)
	assert.Zero(t, after.GetGauge().GetValue())
}

func TestPrometheusMetrics_ImplicitOKStatus(t *testing.T) {
	router := metricsRouter("implicit-svc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))

	m := findMetric(httpRequestsTotal, map[string]string{"service": "implicit-svc", "status": "200"})
	require.NotNil(t, m, "a handler that never calls WriteHeader records 200")
}

func TestPrometheusMetrics_ErrorStatusCaptured(t *testing.T) {
	router := metricsRouter("err-svc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))

	m := findMetric(httpRequestsTotal, map[string]string{"service": "err-svc", "status": "502"})
	require.NotNil(t, m)
}

type flushSpy struct {
	http.ResponseWriter
	flushed bool
}

func (f *flushSpy) Flush() { f.flushed = true }

type hijackSpy struct {
	http.ResponseWriter
	hijacked bool
}

func (h *hijackSpy) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

type bareWriter struct{ header http.Header }

func (b *bareWriter) Header() http.Header {
	if b.header == nil {
		b.header = make(http.Header)
	}
	return b.header
}
func (b *bareWriter) Write(p []byte) (int, error) { return len(p), nil }
func (b *bareWriter) WriteHeader(int)             {}

func TestStatusRecorder_FlushDelegates(t *testing.T) {
	spy := &flushSpy{ResponseWriter: httptest.NewRecorder()}
	rec := &statusRecorder{ResponseWriter: spy}

	rec.Flush()
	assert.True(t, spy.flushed)
}

func TestStatusRecorder_FlushWithoutFlusherIsNoop(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: &bareWriter{}}
	rec.Flush()
}

func TestStatusRecorder_HijackDelegates(t *testing.T) {
	spy := &hijackSpy{ResponseWriter: httptest.NewRecorder()}
	rec := &statusRecorder{ResponseWriter: spy}

	_, _, err := rec.Hijack()
	require.NoError(t, err)
	assert.True(t, spy.hijacked)
}

func TestStatusRecorder_HijackWithoutHijacker(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: &bareWriter{}}
	_, _, err := rec.Hijack()
	assert.ErrorIs(t, err, http.ErrNotSupported)
}
