package telemetry

import (
	"context"
	"time"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricSyncUnits        = "marketsync.sync.units"
	MetricSyncUnitDuration = "marketsync.sync.unit.duration"
	MetricSyncRuns         = "marketsync.sync.runs"
	MetricSyncRunDuration  = "marketsync.sync.run.duration"
	MetricSyncRunsActive   = "marketsync.sync.runs.active"
	MetricSyncRunUnits     = "marketsync.sync.run.units"
	MetricOrdersIngested   = "marketsync.orders.ingested"
)

// Values of the result attribute
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

const syncMeterName = "marketsync/sync"

// SyncMetrics records bulk sync runs and marketplace ingestion.
type SyncMetrics struct {
	units        *Counter
	unitDuration *Histogram
	runs         *Counter
	runDuration  *Histogram
	runsActive   *Gauge
	runUnits     *Counter
	ingested     *Counter
}

// NewSyncMetrics registers the sync instruments on the provider's meter.
func NewSyncMetrics(mp *MeterProvider) (*SyncMetrics, error) {
	meter := mp.Meter(syncMeterName)
	return newSyncMetrics(meter)
}

func newSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	var (
		m   SyncMetrics
		err error
	)
	if m.units, err = NewCounter(meter, MetricSyncUnits, "Stock updates sent to marketplaces", "{update}"); err != nil {
		return nil, err
	}
	if m.unitDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        MetricSyncUnitDuration,
		Description: "Duration of one marketplace stock update",
		Unit:        "s",
		Boundaries:  UnitDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.runs, err = NewCounter(meter, MetricSyncRuns, "Bulk sync runs by outcome", "{run}"); err != nil {
		return nil, err
	}
	if m.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        MetricSyncRunDuration,
		Description: "Duration of a bulk sync run",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.runsActive, err = NewGauge(meter, MetricSyncRunsActive, "Whether a bulk sync run is in progress", "{run}"); err != nil {
		return nil, err
	}
	if m.runUnits, err = NewCounter(meter, MetricSyncRunUnits, "Units planned by started runs", "{update}"); err != nil {
		return nil, err
	}
	if m.ingested, err = NewCounter(meter, MetricOrdersIngested, "Orders pulled from marketplaces", "{order}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RunStarted records a run start with its planned unit count
func (m *SyncMetrics) RunStarted(ctx context.Context, _ int, units int) {
	m.runsActive.Record(ctx, 1)
	m.runUnits.Add(ctx, int64(units))
}

// UnitCompleted records the outcome and latency of one stock update
func (m *SyncMetrics) UnitCompleted(ctx context.Context, marketplace integration.MarketplaceID, success bool, duration time.Duration) {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}
	attrs := []attribute.KeyValue{AttrMarketplace.String(string(marketplace)), AttrResult.String(result)}
	m.units.Inc(ctx, attrs...)
	m.unitDuration.RecordDuration(ctx, duration, attrs...)
}

// RunFinished records a completed or cancelled run
func (m *SyncMetrics) RunFinished(ctx context.Context, outcome string, duration time.Duration) {
	m.runsActive.Record(ctx, 0)
	m.runs.Inc(ctx, AttrOutcome.String(outcome))
	m.runDuration.RecordDuration(ctx, duration, AttrOutcome.String(outcome))
}

// OrdersIngested counts orders stored by a marketplace pull
func (m *SyncMetrics) OrdersIngested(ctx context.Context, marketplace integration.MarketplaceID, n int) {
	if n <= 0 {
		return
	}
	m.ingested.Add(ctx, int64(n), AttrMarketplace.String(string(marketplace)))
}
