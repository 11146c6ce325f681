package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_Counts(t *testing.T) {
	m := New()
	m.DoseRecorded("taken")
	m.DoseRecorded("taken")
	m.DoseRecorded("missed")
	m.UpdateConflict()
	m.SweptMissed(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DosesRecorded.WithLabelValues("taken")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DosesRecorded.WithLabelValues("missed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdateConflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SweepMissed))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.DoseRecorded("delayed")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `adherence_doses_recorded_total{status="delayed"} 1`)
}
