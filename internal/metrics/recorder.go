// Package metrics exposes process counters for story generation, exports
// and the library in Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so tests and multiple servers in one
// process do not collide on the global one. A nil *Recorder records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	generated      *prometheus.CounterVec
	generateErrors prometheus.Counter
	exports        *prometheus.CounterVec
	exportErrors   *prometheus.CounterVec
	libraryStories prometheus.Gauge
	uniqueness     prometheus.Histogram
}

// NewRecorder creates a recorder with Go runtime and process collectors
// registered alongside the bedtime metrics.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		generated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedtime_stories_generated_total",
				Help: "Total number of stories generated, by language and theme.",
			},
			[]string{"language", "theme"},
		),
		generateErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bedtime_generation_errors_total",
				Help: "Total number of generation requests that failed.",
			},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedtime_exports_total",
				Help: "Total number of story exports, by format.",
			},
			[]string{"format"},
		),
		exportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedtime_export_errors_total",
				Help: "Total number of failed story exports, by format.",
			},
			[]string{"format"},
		),
		libraryStories: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bedtime_library_stories",
				Help: "Number of stories currently saved in the library.",
			},
		),
		uniqueness: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bedtime_story_uniqueness_ratio",
				Help:    "Share of distinct n-grams in generated stories.",
				Buckets: []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
			},
		),
	}
}

// StoryGenerated counts a successful generation.
func (r *Recorder) StoryGenerated(language, theme string, uniqueness float64) {
	if r == nil {
		return
	}
	r.generated.WithLabelValues(language, theme).Inc()
	r.uniqueness.Observe(uniqueness)
}

// GenerationFailed counts a failed generation.
func (r *Recorder) GenerationFailed() {
	if r == nil {
		return
	}
	r.generateErrors.Inc()
}

// Exported counts one export attempt in format.
func (r *Recorder) Exported(format string, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.exportErrors.WithLabelValues(format).Inc()
		return
	}
	r.exports.WithLabelValues(format).Inc()
}

// LibrarySize sets the library gauge.
func (r *Recorder) LibrarySize(n int) {
	if r == nil {
		return
	}
	r.libraryStories.Set(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
