package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	p, err := Setup(context.Background(), "canteen-test", "")
	require.NoError(t, err)
	require.NotNil(t, p.Logger)
	require.NotNil(t, p.Tracer)
	require.NotNil(t, p.Meter)
	p.Shutdown(context.Background())
}

func TestMetricsRecordOrders(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.OrdersPlaced.Add(ctx, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var found bool
	for _, md := range rm.ScopeMetrics[0].Metrics {
		if md.Name != "orders_placed_total" {
			continue
		}
		sum, ok := md.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Equal(t, int64(2), sum.DataPoints[0].Value)
		found = true
	}
	require.True(t, found)
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	m.CartMutations.Add(context.Background(), 1)
}
