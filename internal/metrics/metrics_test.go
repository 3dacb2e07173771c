package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"

	"github.com/kraciasty/titlecss/internal/metrics"
	"github.com/kraciasty/titlecss/render"
)

func getHistogramCount(t *testing.T, hist *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	o, err := hist.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	_ = o.(prometheus.Metric).Write(m)
	return m.GetHistogram().GetSampleCount()
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/metrics", "/metrics"},
		{"/healthz", "/healthz"},
		{"/render", "/render"},
		{"/users/abc123", "/users/{id}"},
		{"/users/abc123/post-author", "/users/{id}/post-author"},
		{"/admin/users/abc123/title-css", "/admin/users/{id}/title-css"},
		{"/admin/users/abc123", "/other"},
		{"/favicon.ico", "/other"},
		{"/", "/other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, metrics.NormalizePath(tt.path))
		})
	}
}

func TestHTTPMiddleware_RecordsRequestMetrics(t *testing.T) {
	handler := metrics.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/users/{id}", "404")
	before := testutil.ToFloat64(counter)
	beforeHist := getHistogramCount(t, metrics.HTTPRequestDuration, http.MethodGet, "/users/{id}")

	for _, id := range []string{"a", "b", "c"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
	assert.Equal(t, beforeHist+3, getHistogramCount(t, metrics.HTTPRequestDuration, http.MethodGet, "/users/{id}"))
}

func TestHTTPMiddleware_DefaultStatus(t *testing.T) {
	handler := metrics.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordSanitize(t *testing.T) {
	counter := metrics.SanitizeTotal.WithLabelValues(metrics.OutcomeAltered)
	before := testutil.ToFloat64(counter)

	metrics.RecordSanitize(metrics.OutcomeAltered)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObserver(t *testing.T) {
	flushes := testutil.ToFloat64(metrics.StyleCacheFlushesTotal)
	rebuilds := testutil.ToFloat64(metrics.StylesheetRebuildsTotal)

	s := render.NewStylesheet(render.WithMaxEntries(1), render.WithObserver(metrics.Observer{}))
	s.ApplyBatch([]render.Occurrence{{Text: "One", Style: "color: red"}})
	s.ApplyBatch([]render.Occurrence{{Text: "Two", Style: "color: blue"}})
	s.ApplyBatch([]render.Occurrence{{Text: "Two", Style: "color: blue"}})

	assert.Equal(t, flushes+1, testutil.ToFloat64(metrics.StyleCacheFlushesTotal))
	assert.Equal(t, rebuilds+2, testutil.ToFloat64(metrics.StylesheetRebuildsTotal))
}
