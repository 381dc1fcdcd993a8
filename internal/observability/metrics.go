package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the capture and detection
// pipeline.
type PipelineMetrics struct {
	registry *prometheus.Registry

	chunksProcessedTotal prometheus.Counter
	chunksDroppedTotal   prometheus.Counter
	filterErrorsTotal    prometheus.Counter

	eventsDetectedTotal     prometheus.Counter
	lowFrequencyEventsTotal prometheus.Counter
	segmentsWrittenTotal    prometheus.Counter
	encodeErrorsTotal       prometheus.Counter
	warningsTotal           *prometheus.CounterVec

	currentLevelGauge prometheus.Gauge
	clippingTotal     prometheus.Counter
}

// NewPipelineMetrics creates and registers pipeline metrics on the given
// registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.chunksProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_chunks_processed_total",
		Help: "Total number of audio chunks processed by the pipeline",
	})
	m.chunksDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_chunks_dropped_total",
		Help: "Total number of audio chunks dropped before processing",
	})
	m.filterErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_filter_errors_total",
		Help: "Total number of chunks that bypassed the wind filter on error",
	})
	m.eventsDetectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_events_detected_total",
		Help: "Total number of finalized loud events",
	})
	m.lowFrequencyEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_low_frequency_events_total",
		Help: "Total number of events classified as low frequency",
	})
	m.segmentsWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_segments_written_total",
		Help: "Total number of finalized ambient segments",
	})
	m.encodeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_encode_errors_total",
		Help: "Total number of clip encode failures",
	})
	m.warningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_warnings_total",
		Help: "Total number of pipeline warnings by category",
	}, []string{"category"})
	m.currentLevelGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_level_db",
		Help: "Most recent measured sound level in dB",
	})
	m.clippingTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_clipping_chunks_total",
		Help: "Total number of chunks containing clipped samples",
	})
}

// Describe implements the prometheus.Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.chunksProcessedTotal.Describe(ch)
	m.chunksDroppedTotal.Describe(ch)
	m.filterErrorsTotal.Describe(ch)
	m.eventsDetectedTotal.Describe(ch)
	m.lowFrequencyEventsTotal.Describe(ch)
	m.segmentsWrittenTotal.Describe(ch)
	m.encodeErrorsTotal.Describe(ch)
	m.warningsTotal.Describe(ch)
	m.currentLevelGauge.Describe(ch)
	m.clippingTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.chunksProcessedTotal.Collect(ch)
	m.chunksDroppedTotal.Collect(ch)
	m.filterErrorsTotal.Collect(ch)
	m.eventsDetectedTotal.Collect(ch)
	m.lowFrequencyEventsTotal.Collect(ch)
	m.segmentsWrittenTotal.Collect(ch)
	m.encodeErrorsTotal.Collect(ch)
	m.warningsTotal.Collect(ch)
	m.currentLevelGauge.Collect(ch)
	m.clippingTotal.Collect(ch)
}

// RecordChunkProcessed records one processed audio chunk and its level.
func (m *PipelineMetrics) RecordChunkProcessed(levelDB float64, clipping bool) {
	if m == nil {
		return
	}
	m.chunksProcessedTotal.Inc()
	m.currentLevelGauge.Set(levelDB)
	if clipping {
		m.clippingTotal.Inc()
	}
}

// RecordChunksDropped adds to the count of chunks lost before processing.
func (m *PipelineMetrics) RecordChunksDropped(n uint64) {
	if m == nil {
		return
	}
	m.chunksDroppedTotal.Add(float64(n))
}

// RecordFilterError records a chunk that bypassed the wind filter.
func (m *PipelineMetrics) RecordFilterError() {
	if m == nil {
		return
	}
	m.filterErrorsTotal.Inc()
}

// RecordEvent records a finalized loud event.
func (m *PipelineMetrics) RecordEvent(lowFrequency bool) {
	if m == nil {
		return
	}
	m.eventsDetectedTotal.Inc()
	if lowFrequency {
		m.lowFrequencyEventsTotal.Inc()
	}
}

// RecordSegment records a finalized ambient segment.
func (m *PipelineMetrics) RecordSegment() {
	if m == nil {
		return
	}
	m.segmentsWrittenTotal.Inc()
}

// RecordEncodeError records a failed clip encode.
func (m *PipelineMetrics) RecordEncodeError() {
	if m == nil {
		return
	}
	m.encodeErrorsTotal.Inc()
}

// RecordWarning records a pipeline warning by category.
func (m *PipelineMetrics) RecordWarning(category string) {
	if m == nil {
		return
	}
	m.warningsTotal.WithLabelValues(category).Inc()
}
