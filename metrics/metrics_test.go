package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	assert.NotNil(t, PhaseDuration)
	assert.NotNil(t, PhaseFailures)
	assert.NotNil(t, LapsRecorded)
	assert.NotNil(t, ErrorsHandled)
	assert.NotNil(t, ReportPublishFailures)
	assert.NotNil(t, RequestsRejected)
}

func TestErrorsHandledCountsPerSource(t *testing.T) {
	before := testutil.ToFloat64(ErrorsHandled.WithLabelValues("metrics-test"))
	ErrorsHandled.WithLabelValues("metrics-test").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ErrorsHandled.WithLabelValues("metrics-test")))
}
