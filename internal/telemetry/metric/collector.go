package metric

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/roguesave/internal/persist"
	"github.com/yndnr/roguesave/internal/storage"
)

// Collector reports the save files currently held by a store. Values are
// computed on every scrape.
type Collector struct {
	store storage.Store

	files *prometheus.Desc
	bytes *prometheus.Desc
	errs  *prometheus.Desc
}

// NewCollector creates a collector over store.
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store: store,
		files: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "files"),
			"Save files in the store by target kind.",
			[]string{"kind"}, nil),
		bytes: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "bytes"),
			"Total size of save files in the store by target kind.",
			[]string{"kind"}, nil),
		errs: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "list_errors"),
			"1 if the last scrape could not list the store.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.files
	ch <- c.bytes
	ch <- c.errs
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	entries, err := c.store.List("")
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.errs, prometheus.GaugeValue, 1)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.errs, prometheus.GaugeValue, 0)

	files := map[string]float64{}
	sizes := map[string]float64{}
	for _, kind := range []string{persist.KindSlot, persist.KindQuicksave, persist.KindAutosave} {
		files[kind], sizes[kind] = 0, 0
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name, ".sav") {
			continue
		}
		kind := persist.TargetKind(e.Name)
		files[kind]++
		sizes[kind] += float64(e.Size)
	}
	for kind, n := range files {
		ch <- prometheus.MustNewConstMetric(c.files, prometheus.GaugeValue, n, kind)
		ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, sizes[kind], kind)
	}
}
