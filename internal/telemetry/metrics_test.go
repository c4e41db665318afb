package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "network", Outcome(0))
	assert.Equal(t, "ok", Outcome(200))
	assert.Equal(t, "ok", Outcome(204))
	assert.Equal(t, "denied", Outcome(403))
	assert.Equal(t, "error", Outcome(401))
	assert.Equal(t, "error", Outcome(500))
}

func TestRecordRequest_NoopProvider(t *testing.T) {
	m, err := NewClientMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordRequest(context.Background(), "list_roster", 403, 12*time.Millisecond)
	})

	var nilMetrics *ClientMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordRequest(context.Background(), "list_roster", 200, time.Millisecond)
	})
}
