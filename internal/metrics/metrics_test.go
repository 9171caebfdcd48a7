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

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Enqueued("status_change")
	m.Enqueued("status_change")
	m.Decision("status_change", "approved")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.enqueued.WithLabelValues("status_change")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("status_change", "approved")))

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, recorder.Body.String(), "moderation_items_enqueued_total")
}

func TestMetrics_ReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := NewWithRegistry(registry, registry)
	require.NoError(t, err)
	second, err := NewWithRegistry(registry, registry)
	require.NoError(t, err)
	first.Verification("verified")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.verifications.WithLabelValues("verified")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ChallengeOutcome("issued")
	m.Notification("verification.code", "sent")
	assert.NotNil(t, m.Handler())
}
