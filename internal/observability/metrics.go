package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "analysis_engine_active_sessions",
		Help: "Number of interview sessions currently being analyzed",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analysis_engine_sessions_total",
		Help: "Total number of analysis sessions processed",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "analysis_engine_session_duration_seconds",
		Help:    "Wall-clock duration of full session analysis",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Pipeline stage metrics
	stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_engine_stage_latency_seconds",
		Help:    "Latency of individual pipeline stages",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"stage"})

	stageOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_engine_stage_outcomes_total",
		Help: "Pipeline stage completions by outcome",
	}, []string{"stage", "status"})

	// External analysis service metrics
	serviceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_engine_service_requests_total",
		Help: "Outbound analysis service requests",
	}, []string{"service", "status"})

	serviceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_engine_service_latency_seconds",
		Help:    "Outbound analysis service latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0, 30.0},
	}, []string{"service"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_engine_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analysis_engine_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	// Ingest metrics
	audioBytesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_engine_audio_bytes_total",
		Help: "Total audio bytes ingested",
	}, []string{"source"}) // source: "stream" or "file"

	videoFramesSampled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analysis_engine_video_frames_sampled_total",
		Help: "Total video frames sampled for pose scoring",
	})
)

// SessionMetrics tracks metrics for a single analysis session
type SessionMetrics struct {
	sessionID string
	startTime time.Time

	mu          sync.Mutex
	stageStarts map[string]time.Time
}

// NewSessionMetrics creates a metrics tracker for one session
func NewSessionMetrics(sessionID string) *SessionMetrics {
	return &SessionMetrics{
		sessionID:   sessionID,
		startTime:   time.Now(),
		stageStarts: make(map[string]time.Time),
	}
}

// RecordSessionStart records the start of an analysis session
func (m *SessionMetrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of an analysis session
func (m *SessionMetrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordStageStart marks the start of a pipeline stage
func (m *SessionMetrics) RecordStageStart(stage string) {
	m.mu.Lock()
	m.stageStarts[stage] = time.Now()
	m.mu.Unlock()
}

// RecordStageEnd marks the end of a pipeline stage
func (m *SessionMetrics) RecordStageEnd(stage string, success bool) {
	m.mu.Lock()
	start, ok := m.stageStarts[stage]
	delete(m.stageStarts, stage)
	m.mu.Unlock()

	if ok {
		stageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	stageOutcomes.WithLabelValues(stage, status).Inc()
}

// RecordError records an error
func (m *SessionMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records ingested audio bytes
func (m *SessionMetrics) RecordAudioBytes(source string, bytes int64) {
	audioBytesIngested.WithLabelValues(source).Add(float64(bytes))
}

// RecordFrameSampled counts a video frame handed to pose scoring
func (m *SessionMetrics) RecordFrameSampled() {
	videoFramesSampled.Inc()
}

// RecordServiceRequest records one outbound service call
func RecordServiceRequest(service string, err error, latency time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	serviceRequests.WithLabelValues(service, status).Inc()
	serviceLatency.WithLabelValues(service).Observe(latency.Seconds())
}

// SetCircuitBreakerState exports a breaker state transition
func SetCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}
