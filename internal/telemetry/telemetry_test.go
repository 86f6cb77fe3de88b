package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "axisem")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpoint(t *testing.T) {
	// Non-routable address: nothing is exported, shutdown still flushes.
	shutdown, err := Setup(context.Background(), "http://192.0.2.1:4318", "axisem", attribute.Int("rank", 0))
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
