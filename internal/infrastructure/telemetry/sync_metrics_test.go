package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func newTestSyncMetrics(t *testing.T) (*telemetry.SyncMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := telemetry.NewSyncMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, kv ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	want := attribute.NewSet(kv...)
	var total int64
	for _, dp := range sum.DataPoints {
		if len(kv) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestSyncMetrics_UnitsByMarketplaceAndResult(t *testing.T) {
	m, reader := newTestSyncMetrics(t)
	ctx := context.Background()

	m.UnitCompleted(ctx, integration.MarketplaceMercadoLibre, true, 20*time.Millisecond)
	m.UnitCompleted(ctx, integration.MarketplaceMercadoLibre, true, 30*time.Millisecond)
	m.UnitCompleted(ctx, integration.MarketplaceMercadoLibre, false, 10*time.Millisecond)
	m.UnitCompleted(ctx, integration.MarketplaceParis, true, 5*time.Millisecond)

	got := collect(t, reader)
	units := got[telemetry.MetricSyncUnits]
	assert.Equal(t, int64(2), sumFor(t, units,
		telemetry.AttrMarketplace.String(string(integration.MarketplaceMercadoLibre)),
		telemetry.AttrResult.String(telemetry.ResultSuccess)))
	assert.Equal(t, int64(1), sumFor(t, units,
		telemetry.AttrMarketplace.String(string(integration.MarketplaceMercadoLibre)),
		telemetry.AttrResult.String(telemetry.ResultFailure)))
	assert.Equal(t, int64(4), sumFor(t, units))

	hist, ok := got[telemetry.MetricSyncUnitDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(4), count)
}

func TestSyncMetrics_RunLifecycle(t *testing.T) {
	m, reader := newTestSyncMetrics(t)
	ctx := context.Background()

	m.RunStarted(ctx, 2, 10)
	m.RunFinished(ctx, "completed", 3*time.Second)
	m.RunStarted(ctx, 1, 4)
	m.RunFinished(ctx, "cancelled", time.Second)

	got := collect(t, reader)
	assert.Equal(t, int64(14), sumFor(t, got[telemetry.MetricSyncRunUnits]))
	assert.Equal(t, int64(1), sumFor(t, got[telemetry.MetricSyncRuns], telemetry.AttrOutcome.String("completed")))
	assert.Equal(t, int64(1), sumFor(t, got[telemetry.MetricSyncRuns], telemetry.AttrOutcome.String("cancelled")))

	gauge, ok := got[telemetry.MetricSyncRunsActive].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(0), gauge.DataPoints[0].Value)
}

func TestSyncMetrics_OrdersIngested(t *testing.T) {
	m, reader := newTestSyncMetrics(t)
	ctx := context.Background()

	m.OrdersIngested(ctx, integration.MarketplaceRipley, 3)
	m.OrdersIngested(ctx, integration.MarketplaceRipley, 0)
	m.OrdersIngested(ctx, integration.MarketplaceWalmart, 2)

	got := collect(t, reader)
	ingested := got[telemetry.MetricOrdersIngested]
	assert.Equal(t, int64(3), sumFor(t, ingested, telemetry.AttrMarketplace.String(string(integration.MarketplaceRipley))))
	assert.Equal(t, int64(5), sumFor(t, ingested))
}

func TestMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))

	// Instruments on the no-op meter accept recordings.
	m, err := telemetry.NewSyncMetrics(mp)
	require.NoError(t, err)
	m.UnitCompleted(context.Background(), integration.MarketplaceParis, true, time.Millisecond)
}
