package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FileIndexed()
		m.FileSkipped()
		m.FileFailed()
		m.TokensAdded(3)
		m.BuildFinished(1)
		m.SearchObserved("inverted", "hit", 0.1, 2)
		m.CacheHit()
		m.CacheMiss()
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.FileIndexed()
	m.FileIndexed()
	m.FileFailed()
	m.TokensAdded(10)
	m.TokensAdded(-1)
	m.SearchObserved("matrix", "parse_error", 0.01, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BuildFilesTotal.WithLabelValues("indexed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildFilesTotal.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BuildFilesTotal.WithLabelValues("skipped")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.BuildTokensTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("matrix", "parse_error")))
}

func TestHandlerServesOwnRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CacheHit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bse_cache_hits_total 1")
}
