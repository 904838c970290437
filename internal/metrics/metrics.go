package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the Prometheus instruments for the build pipeline. Each
// Recorder owns its own registry so tests never collide on global state.
type Recorder struct {
	registry *prom.Registry

	buildsTotal       prom.Counter
	buildsFailedTotal prom.Counter
	buildDuration     prom.Histogram
	pagesWritten      prom.Gauge
	extraFiles        prom.Gauge
	lastBuildUnix     prom.Gauge
}

// NewRecorder creates a Recorder with Go runtime and process collectors
// pre-registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prom.NewRegistry(),
		buildsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "docprep", Name: "builds_total",
			Help: "Total site builds attempted",
		}),
		buildsFailedTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "docprep", Name: "builds_failed_total",
			Help: "Site builds that ended in error",
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docprep", Name: "build_duration_seconds",
			Help:    "Wall time of a full site build",
			Buckets: prom.ExponentialBuckets(0.01, 2, 12),
		}),
		pagesWritten: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docprep", Name: "last_build_pages",
			Help: "Pages written in the most recent completed build",
		}),
		extraFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docprep", Name: "last_build_extra_files",
			Help: "Extra files copied in the most recent completed build",
		}),
		lastBuildUnix: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docprep", Name: "last_build_timestamp_seconds",
			Help: "Unix time the most recent build finished",
		}),
	}

	r.registry.MustRegister(
		r.buildsTotal, r.buildsFailedTotal, r.buildDuration,
		r.pagesWritten, r.extraFiles, r.lastBuildUnix,
	)
	r.registry.MustRegister(
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	)

	return r
}

// ObserveBuild records the outcome of one build.
func (r *Recorder) ObserveBuild(duration time.Duration, pages, extraFiles int, err error) {
	r.buildsTotal.Inc()
	if err != nil {
		r.buildsFailedTotal.Inc()
		return
	}
	r.buildDuration.Observe(duration.Seconds())
	r.pagesWritten.Set(float64(pages))
	r.extraFiles.Set(float64(extraFiles))
	r.lastBuildUnix.SetToCurrentTime()
}

// Handler returns the scrape endpoint for this Recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (r *Recorder) Registry() *prom.Registry {
	return r.registry
}
