package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func static(s Status) Check {
	return func(context.Context) ComponentHealth { return ComponentHealth{Status: s} }
}

func TestRunAggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Status
		want   Status
	}{
		{"none", nil, StatusUp},
		{"all up", map[string]Status{"index": StatusUp, "redis": StatusUp}, StatusUp},
		{"degraded", map[string]Status{"index": StatusUp, "redis": StatusDegraded}, StatusDegraded},
		{"down wins", map[string]Status{"index": StatusDown, "redis": StatusDegraded}, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, s := range tt.checks {
				c.Register(name, static(s))
			}
			report := c.Run(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Components, len(tt.checks))
		})
	}
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", static(StatusDegraded))
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	c.Register("index", static(StatusDown))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDown, report.Components["index"].Status)
	assert.Equal(t, []string{"index", "redis"}, c.Names())
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
