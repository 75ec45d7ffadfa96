package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	ctx := context.Background()

	tel, err := Setup(ctx, "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(ctx))
}

func TestRecordPerfStatsNoop(t *testing.T) {
	// the global meter provider is a no-op in tests, this only
	// asserts that sampling does not panic or block.
	RecordPerfStats(context.Background())
}
