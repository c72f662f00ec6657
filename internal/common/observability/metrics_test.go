// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJobMetrics(t *testing.T) {
	obs := New("renewal-manager-test")
	defer obs.Shutdown()

	require.NotNil(t, obs.jobCounter)
	require.NotNil(t, obs.jobDuration)

	obs.RecordJobProcessed(context.Background(), "generate-quote")
	obs.RecordJobDuration(context.Background(), 120*time.Millisecond, "generate-quote")
}

func TestRecordJobMetrics_ZeroValueIsSafe(t *testing.T) {
	// Exporter setup can fail at startup; recording must still be a no-op.
	obs := &Observability{}

	obs.RecordJobProcessed(context.Background(), "generate-quote")
	obs.RecordJobDuration(context.Background(), time.Second, "generate-quote")
	obs.Shutdown()

	assert.Nil(t, obs.jobCounter)
}
