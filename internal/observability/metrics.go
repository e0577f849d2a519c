package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal      = "githarvest.commits.total"
	metricFilesChangedTotal = "githarvest.files_changed.total"
	metricSinkWriteDuration = "githarvest.sink.write.duration.seconds"
)

// sinkWriteBucketBoundaries covers 100µs in-memory writes up to multi-second
// network round trips.
var sinkWriteBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// PipelineMetrics holds the OTel instruments for the extraction pipeline.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	commitsTotal      metric.Int64Counter
	filesChangedTotal metric.Int64Counter
	sinkWriteDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PipelineMetrics{
		commitsTotal:      b.counter(metricCommitsTotal, "Total number of commits processed", "{commit}"),
		filesChangedTotal: b.counter(metricFilesChangedTotal, "Total number of file changes extracted", "{file}"),
		sinkWriteDuration: b.histogram(metricSinkWriteDuration, "Sink write duration in seconds", "s", sinkWriteBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// ObserveCommit records one processed commit, its file change count and the
// time spent delivering the record to the sink.
func (pm *PipelineMetrics) ObserveCommit(ctx context.Context, filesChanged int, sinkWrite time.Duration) {
	if pm == nil {
		return
	}

	pm.commitsTotal.Add(ctx, 1)
	pm.filesChangedTotal.Add(ctx, int64(filesChanged))
	pm.sinkWriteDuration.Record(ctx, sinkWrite.Seconds())
}
