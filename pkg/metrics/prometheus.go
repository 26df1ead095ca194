// Package metrics provides Prometheus metrics for the attrition service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the attrition service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Serving
	predictions        *prometheus.CounterVec
	predictionErrors   *prometheus.CounterVec
	predictionWarnings *prometheus.CounterVec
	predictionLatency  prometheus.Histogram
	probability        prometheus.Histogram

	// Artifact cache
	artifactLoads       *prometheus.CounterVec
	artifactLoadLatency prometheus.Histogram
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter

	// Training
	trainingRuns       *prometheus.CounterVec
	trainingDuration   prometheus.Histogram
	candidateAccuracy  *prometheus.GaugeVec
	candidateAUC       *prometheus.GaugeVec
	candidatesSkipped  *prometheus.CounterVec
	trainingRowsLatest prometheus.Gauge

	// Registry
	registeredModels   prometheus.Gauge
	activations        prometheus.Counter
	activeModelVersion prometheus.Gauge
	autoActivations    *prometheus.CounterVec

	// Queue Metrics - Training job queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
	trackedJobs          prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "attrition",
		subsystem:        "",
		histogramBuckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.predictions = m.counterVec("predictions_total", "Predictions served by risk tier", "risk_level")
	m.predictionErrors = m.counterVec("prediction_errors_total", "Prediction requests that failed, by reason", "reason")
	m.predictionWarnings = m.counterVec("prediction_warnings_total", "Encoder recoveries (clamps, fallback buckets) by field", "field")
	m.predictionLatency = m.histogram("prediction_latency_milliseconds", "End-to-end prediction latency in milliseconds", m.histogramBuckets)
	m.probability = m.histogram("prediction_probability", "Distribution of predicted turnover probabilities",
		[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1})

	m.artifactLoads = m.counterVec("artifact_loads_total", "Model artifact loads by outcome", "outcome")
	m.artifactLoadLatency = m.histogram("artifact_load_latency_milliseconds", "Model artifact load latency in milliseconds", m.histogramBuckets)
	m.cacheHits = m.counter("artifact_cache_hits_total", "Predictions served from the loaded model cache")
	m.cacheMisses = m.counter("artifact_cache_misses_total", "Predictions that had to load a model artifact")

	m.trainingRuns = m.counterVec("training_runs_total", "Training runs by outcome", "outcome")
	m.trainingDuration = m.histogram("training_duration_seconds", "Training run duration in seconds",
		[]float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300})
	m.candidateAccuracy = m.gaugeVec("training_candidate_accuracy", "Held-out accuracy of the latest candidate per family", "family")
	m.candidateAUC = m.gaugeVec("training_candidate_auc", "Held-out AUC of the latest candidate per family", "family")
	m.candidatesSkipped = m.counterVec("training_candidates_skipped_total", "Candidates excluded after a fit failure", "family")
	m.trainingRowsLatest = m.gauge("training_rows", "Rows used by the latest training run")

	m.registeredModels = m.gauge("registry_models", "Number of registered models")
	m.activations = m.counter("registry_activations_total", "Successful model activations")
	m.activeModelVersion = m.gauge("registry_active_model_version", "Version of the active model")
	m.autoActivations = m.counterVec("registry_auto_activations_total", "Auto-activation attempts by outcome", "outcome")

	m.queueSize = m.gauge("queue_size", "Current number of queued training jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum training queue capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of training jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of training jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of training workers currently running a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Training job processing latency in milliseconds",
		[]float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000})
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of failed training jobs")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
	m.trackedJobs = m.gauge("training_jobs_tracked", "Training job statuses currently remembered")
}

func active() *Manager {
	if globalManager == nil || !globalManager.enabled {
		return nil
	}
	return globalManager
}

// Serving Metrics Functions.

// RecordPrediction records a served prediction.
func RecordPrediction(riskLevel string, probability, latencyMs float64) {
	if m := active(); m != nil {
		m.predictions.WithLabelValues(riskLevel).Inc()
		m.probability.Observe(probability)
		m.predictionLatency.Observe(latencyMs)
	}
}

// RecordPredictionError records a failed prediction.
func RecordPredictionError(reason string) {
	if m := active(); m != nil {
		m.predictionErrors.WithLabelValues(reason).Inc()
	}
}

// RecordPredictionWarning records an encoder recovery on field.
func RecordPredictionWarning(field string) {
	if m := active(); m != nil {
		m.predictionWarnings.WithLabelValues(field).Inc()
	}
}

// RecordArtifactLoad records a model artifact load.
func RecordArtifactLoad(outcome string, latencyMs float64) {
	if m := active(); m != nil {
		m.artifactLoads.WithLabelValues(outcome).Inc()
		m.artifactLoadLatency.Observe(latencyMs)
	}
}

// RecordCacheHit records a prediction served by the cached model.
func RecordCacheHit() {
	if m := active(); m != nil {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss records a prediction that needed an artifact load.
func RecordCacheMiss() {
	if m := active(); m != nil {
		m.cacheMisses.Inc()
	}
}

// Training Metrics Functions.

// RecordTrainingRun records a finished training run.
func RecordTrainingRun(outcome string, seconds float64, rows int) {
	if m := active(); m != nil {
		m.trainingRuns.WithLabelValues(outcome).Inc()
		m.trainingDuration.Observe(seconds)
		m.trainingRowsLatest.Set(float64(rows))
	}
}

// RecordCandidate records a candidate's held-out scores.
func RecordCandidate(family string, accuracy, auc float64) {
	if m := active(); m != nil {
		m.candidateAccuracy.WithLabelValues(family).Set(accuracy)
		m.candidateAUC.WithLabelValues(family).Set(auc)
	}
}

// RecordCandidateSkipped records a candidate that failed to fit.
func RecordCandidateSkipped(family string) {
	if m := active(); m != nil {
		m.candidatesSkipped.WithLabelValues(family).Inc()
	}
}

// Registry Metrics Functions.

// UpdateRegisteredModels sets the number of registered models.
func UpdateRegisteredModels(count int) {
	if m := active(); m != nil {
		m.registeredModels.Set(float64(count))
	}
}

// RecordActivation records a successful activation of the given version.
func RecordActivation(version int) {
	if m := active(); m != nil {
		m.activations.Inc()
		m.activeModelVersion.Set(float64(version))
	}
}

// RecordAutoActivation records an auto-activation attempt.
func RecordAutoActivation(outcome string) {
	if m := active(); m != nil {
		m.autoActivations.WithLabelValues(outcome).Inc()
	}
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if m := active(); m != nil {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if m := active(); m != nil {
		m.queueEnqueueRate.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if m := active(); m != nil {
		m.queueDequeueRate.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if m := active(); m != nil {
		m.queueEnqueueErrors.Inc()
	}
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	if m := active(); m != nil {
		m.workerActiveCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if m := active(); m != nil {
		m.workerErrorRate.Inc()
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// UpdateTrackedJobs sets the number of remembered training job statuses.
func UpdateTrackedJobs(count int) {
	if m := active(); m != nil {
		m.trackedJobs.Set(float64(count))
	}
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
