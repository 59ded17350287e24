package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Render metrics
	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cwgen_renders_total",
		Help: "Total number of renders by outcome",
	}, []string{"status"})

	renderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cwgen_render_latency_seconds",
		Help:    "Wall time spent synthesizing a buffer",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	})

	renderedSamples = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cwgen_rendered_samples_total",
		Help: "Total samples synthesized",
	})

	renderedAudioSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cwgen_rendered_audio_seconds_total",
		Help: "Total playing time of synthesized audio",
	})

	// Sink metrics
	sinkWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cwgen_sink_writes_total",
		Help: "Buffers consumed by sinks, by sink and outcome",
	}, []string{"sink", "status"})

	// Stream metrics
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cwgen_active_streams",
		Help: "Number of open websocket audio streams",
	})

	streamedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cwgen_streamed_bytes_total",
		Help: "PCM bytes written to websocket streams",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cwgen_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// RenderMetrics tracks metrics for a single render
type RenderMetrics struct {
	startTime time.Time
}

// StartRender records the start of a render
func StartRender() *RenderMetrics {
	return &RenderMetrics{startTime: time.Now()}
}

// Done records the end of a render and the amount of audio it produced
func (m *RenderMetrics) Done(samples int, audio time.Duration, err error) {
	renderLatency.Observe(time.Since(m.startTime).Seconds())

	if err != nil {
		rendersTotal.WithLabelValues("error").Inc()
		return
	}
	rendersTotal.WithLabelValues("success").Inc()
	renderedSamples.Add(float64(samples))
	renderedAudioSeconds.Add(audio.Seconds())
}

// RecordSinkWrite records a sink consuming a buffer
func RecordSinkWrite(sink string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	sinkWrites.WithLabelValues(sink, status).Inc()
}

// RecordStreamStart records a websocket stream opening
func RecordStreamStart() {
	activeStreams.Inc()
}

// RecordStreamEnd records a websocket stream closing
func RecordStreamEnd() {
	activeStreams.Dec()
}

// RecordStreamedBytes records PCM bytes sent to a stream
func RecordStreamedBytes(n int) {
	streamedBytes.Add(float64(n))
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
