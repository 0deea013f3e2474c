package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordSweepRow(OutcomeReleased)
	c.RecordSweepRow(OutcomeReleased)
	c.RecordSweepRow(OutcomeProviderFailed)
	c.RecordReconciliationGap("compensating_release")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.SweepRows.WithLabelValues(OutcomeReleased)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SweepRows.WithLabelValues(OutcomeProviderFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ReconciliationGaps.WithLabelValues("compensating_release")))
}

func TestHandlerServesRegistry(t *testing.T) {
	c := NewCollector()
	c.RecordHTTPRequest(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "callforward_http_requests_total")
}
