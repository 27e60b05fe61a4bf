package metrics

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the clip pipeline. Everything
// is registered on a private registry so tests can construct a fresh instance
// without colliding with the default one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal prometheus.Counter
	httpErrorsTotal   prometheus.Counter

	processingDuration *prometheus.HistogramVec
	fileSizes          *prometheus.HistogramVec
	activeRequests     prometheus.Gauge
	requestsTotal      *prometheus.CounterVec
	stageTotal         *prometheus.CounterVec
	memoryUsage        *prometheus.GaugeVec
}

// New creates and registers all pipeline metrics on a fresh registry,
// alongside the standard Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	httpErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	processingDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audio_processing_duration_seconds",
		Help:    "Time spent processing audio files",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"operation"})
	fileSizes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audio_file_size_bytes",
		Help:    "Size of audio files processed",
		Buckets: []float64{1024, 10240, 102400, 1048576, 10485760, 52428800},
	}, []string{"type"})
	activeRequests := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_audio_requests",
		Help: "Number of currently active audio processing requests",
	})
	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_requests_total",
		Help: "Total number of audio processing requests",
	}, []string{"status", "cached"})
	stageTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_stage_total",
		Help: "Pipeline stage executions by outcome",
	}, []string{"stage", "outcome"})
	memoryUsage := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "process_memory_detailed_bytes",
		Help: "Detailed memory usage breakdown",
	}, []string{"type"})

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpErrorsTotal,
		processingDuration,
		fileSizes,
		activeRequests,
		requestsTotal,
		stageTotal,
		memoryUsage,
	)

	return &Metrics{
		registry:           registry,
		httpRequestsTotal:  httpRequestsTotal,
		httpErrorsTotal:    httpErrorsTotal,
		processingDuration: processingDuration,
		fileSizes:          fileSizes,
		activeRequests:     activeRequests,
		requestsTotal:      requestsTotal,
		stageTotal:         stageTotal,
		memoryUsage:        memoryUsage,
	}
}

// Timer starts a duration observation for the named pipeline operation.
// Call ObserveDuration on the returned timer when the operation ends.
func (m *Metrics) Timer(operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.processingDuration.WithLabelValues(operation))
}

// ObserveFileSize records the size of a processed artifact.
// kind is "downloaded" or "clipped".
func (m *Metrics) ObserveFileSize(kind string, bytes int64) {
	m.fileSizes.WithLabelValues(kind).Observe(float64(bytes))
}

// IncActive increments the in-flight request gauge.
func (m *Metrics) IncActive() {
	m.activeRequests.Inc()
}

// DecActive decrements the in-flight request gauge.
func (m *Metrics) DecActive() {
	m.activeRequests.Dec()
}

// IncResult counts one finished request. status is "success" or "error".
// The cached label is always "false": every request mints a fresh clip.
func (m *Metrics) IncResult(status string) {
	m.requestsTotal.WithLabelValues(status, "false").Inc()
}

// IncStage counts one stage execution. outcome is "ok" or "error".
func (m *Metrics) IncStage(stage, outcome string) {
	m.stageTotal.WithLabelValues(stage, outcome).Inc()
}

// IncRequests increments the HTTP request counter.
func (m *Metrics) IncRequests() {
	m.httpRequestsTotal.Inc()
}

// IncErrors increments the HTTP error counter.
func (m *Metrics) IncErrors() {
	m.httpErrorsTotal.Inc()
}

// UpdateMemory refreshes the memory breakdown gauges from runtime.MemStats.
func (m *Metrics) UpdateMemory() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.memoryUsage.WithLabelValues("heap_alloc").Set(float64(ms.HeapAlloc))
	m.memoryUsage.WithLabelValues("heap_sys").Set(float64(ms.HeapSys))
	m.memoryUsage.WithLabelValues("stack_sys").Set(float64(ms.StackSys))
	m.memoryUsage.WithLabelValues("sys").Set(float64(ms.Sys))
}

// RunMemorySampler refreshes the memory gauges every interval until ctx is
// cancelled. Run it in its own goroutine.
func (m *Metrics) RunMemorySampler(ctx context.Context, interval time.Duration) {
	m.UpdateMemory()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.UpdateMemory()
		}
	}
}

// Handler returns an http.Handler that serves the Prometheus text exposition
// for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
