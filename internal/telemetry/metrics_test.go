package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

func TestObserveEdge(t *testing.T) {
	m := New()
	m.ObserveEdge(domain.EdgeResult{Model: domain.ModelMoneyline, Tier: domain.TierStrongBet, Edge: 86, Actionable: true})
	m.ObserveEdge(domain.EdgeResult{Model: domain.ModelMoneyline, Tier: domain.TierPass, Edge: 55})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EdgesScored.WithLabelValues("moneyline", "strong_bet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EdgesScored.WithLabelValues("moneyline", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionableEdges.WithLabelValues("moneyline")))
}

func TestObserveGradeTriggerJob(t *testing.T) {
	m := New()
	m.ObserveGrade("pick", "win")
	m.ObserveGrade("pick", "win")
	m.ObserveTrigger(domain.TriggerB2B, "hit")
	m.ObserveJob("grade_results", nil, time.Second)
	m.ObserveJob("grade_results", errors.New("db down"), time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Grades.WithLabelValues("pick", "win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Triggers.WithLabelValues("B2B", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("grade_results", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("grade_results", "error")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `courtedge_http_requests_total{code="200",method="GET"} 1`)
}
