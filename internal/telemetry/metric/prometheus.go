package metric

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/roguesave/internal/persist"
)

// Namespace prefixes every metric name.
const Namespace = "roguesave"

var latencyBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

var sizeBuckets = prometheus.ExponentialBuckets(256, 4, 8)

// Registry holds all persistence metrics. It implements persist.Observer.
type Registry struct {
	// Save metrics
	SavesTotal    *prometheus.CounterVec
	SaveDuration  *prometheus.HistogramVec
	SaveBytes     prometheus.Histogram
	SectionsTotal *prometheus.CounterVec

	// Load metrics
	LoadsTotal      *prometheus.CounterVec
	LoadDuration    *prometheus.HistogramVec
	MigrationsTotal prometheus.Counter
	TamperTotal     *prometheus.CounterVec

	// Recovery metrics
	RecoveriesTotal *prometheus.CounterVec
}

var _ persist.Observer = (*Registry)(nil)

// NewRegistry creates the metrics and registers them with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)
	return &Registry{
		SavesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "save",
			Name:      "total",
			Help:      "Save attempts by target kind and result code.",
		}, []string{"kind", "code"}),
		SaveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "save",
			Name:      "duration_seconds",
			Help:      "Save latency in seconds.",
			Buckets:   latencyBuckets,
		}, []string{"kind"}),
		SaveBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "save",
			Name:      "bytes",
			Help:      "Size of successfully written save files.",
			Buckets:   sizeBuckets,
		}),
		SectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "save",
			Name:      "sections_total",
			Help:      "Sections emitted by successful saves, by reused or written.",
		}, []string{"mode"}),
		LoadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "load",
			Name:      "total",
			Help:      "Load attempts by target kind and result code.",
		}, []string{"kind", "code"}),
		LoadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "load",
			Name:      "duration_seconds",
			Help:      "Load latency in seconds, migration included.",
			Buckets:   latencyBuckets,
		}, []string{"kind"}),
		MigrationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "load",
			Name:      "migration_steps_total",
			Help:      "Migration steps applied by loads.",
		}),
		TamperTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "load",
			Name:      "tamper_total",
			Help:      "Integrity check failures by flag.",
		}, []string{"flag"}),
		RecoveriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "recovery",
			Name:      "total",
			Help:      "Slot loads that fell back to the autosave ring.",
		}, []string{"result"}),
	}
}

// SaveFinished implements persist.Observer.
func (r *Registry) SaveFinished(ev persist.SaveEvent) {
	kind := persist.TargetKind(ev.Target)
	r.SavesTotal.WithLabelValues(kind, code(ev.Err)).Inc()
	r.SaveDuration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		return
	}
	r.SaveBytes.Observe(float64(ev.Bytes))
	r.SectionsTotal.WithLabelValues("reused").Add(float64(ev.Reused))
	r.SectionsTotal.WithLabelValues("written").Add(float64(ev.Written))
}

// LoadFinished implements persist.Observer.
func (r *Registry) LoadFinished(ev persist.LoadEvent) {
	kind := persist.TargetKind(ev.Target)
	r.LoadsTotal.WithLabelValues(kind, code(ev.Err)).Inc()
	r.LoadDuration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
	r.MigrationsTotal.Add(float64(ev.MigrationSteps))
	for _, flag := range []persist.TamperFlags{
		persist.FlagDescriptorCRC,
		persist.FlagSectionCRC,
		persist.FlagSHA256,
		persist.FlagSignature,
	} {
		if ev.Flags.Has(flag) {
			r.TamperTotal.WithLabelValues(flag.String()).Inc()
		}
	}
}

// RecoveryFinished implements persist.Observer.
func (r *Registry) RecoveryFinished(slot int, recovered bool) {
	result := "failed"
	if recovered {
		result = "recovered"
	}
	r.RecoveriesTotal.WithLabelValues(result).Inc()
}

func code(err error) string {
	return strconv.Itoa(persist.CodeOf(err))
}

// NewGatherer returns a fresh registry preloaded with the Go runtime and
// process collectors.
func NewGatherer() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
