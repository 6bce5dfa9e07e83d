package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, "success", Status(nil))
	assert.Equal(t, "failed", Status(errors.New("boom")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	before := testutil.ToFloat64(CorrelationRuns.WithLabelValues("completed"))
	CorrelationRuns.WithLabelValues("completed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CorrelationRuns.WithLabelValues("completed")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "dispatchtracker_correlation_runs_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
