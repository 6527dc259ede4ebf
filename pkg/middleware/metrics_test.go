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

// findMetric drains a collector and returns the first sample whose label set
// contains all of want.
func findMetric(c prometheus.Collector, want map[string]string) *dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)

sample:
	for m := range ch {
		var d dto.Metric
		if err := m.Write(&d); err != nil {
			continue
		}
		have := map[string]string{}
		for _, lp := range d.GetLabel() {
			have[lp.GetName()] = lp.GetValue()
		}
		for k, v := range want {
			if have[k] != v {
				continue sample
			}
		}
		return &d
	}
	return nil
}

func metricsRouter(service string, h http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/items/{itemID}", h)
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	r := metricsRouter("count-svc", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/abc", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// The label is the route pattern, not the concrete path.
	m := findMetric(reqTotal, map[string]string{
		"service": "count-svc", "method": "GET", "path": "/items/{itemID}", "status": "200",
	})
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m.GetCounter().GetValue(), 3.0)
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	r := metricsRouter("latency-svc", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/x", nil))

	m := findMetric(reqDuration, map[string]string{"service": "latency-svc", "status": "201"})
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestPrometheusMetrics_InFlightDuringRequest(t *testing.T) {
	seen := -1.0
	r := metricsRouter("busy-svc", func(w http.ResponseWriter, _ *http.Request) {
		if m := findMetric(reqInFlight, map[string]string{"service": "busy-svc"}); m != nil {
			seen = m.GetGauge().GetValue()
		}
		w.WriteHeader(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/y", nil))

	assert.GreaterOrEqual(t, seen, 1.0)
}

func TestPrometheusMetrics_ImplicitStatusIs200(t *testing.T) {
	r := metricsRouter("implicit-svc", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/z", nil))

	m := findMetric(reqTotal, map[string]string{"service": "implicit-svc", "status": "200"})
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

// bareWriter implements only the base ResponseWriter interface.
type bareWriter struct{ header http.Header }

func (b *bareWriter) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}
func (b *bareWriter) Write(p []byte) (int, error) { return len(p), nil }
func (b *bareWriter) WriteHeader(int)             {}

func TestStatusRecorder_FlushDelegation(t *testing.T) {
	spy := &flushSpy{ResponseWriter: httptest.NewRecorder()}
	rec := &statusRecorder{ResponseWriter: spy}
	rec.Flush()
	assert.True(t, spy.flushed)

	// No Flusher underneath: must not panic.
	(&statusRecorder{ResponseWriter: &bareWriter{}}).Flush()
}

func TestStatusRecorder_HijackDelegation(t *testing.T) {
	spy := &hijackSpy{ResponseWriter: httptest.NewRecorder()}
	rec := &statusRecorder{ResponseWriter: spy}
	_, _, err := rec.Hijack()
	require.NoError(t, err)
	assert.True(t, spy.hijacked)

	_, _, err = (&statusRecorder{ResponseWriter: &bareWriter{}}).Hijack()
	assert.ErrorIs(t, err, http.ErrNotSupported)
}
