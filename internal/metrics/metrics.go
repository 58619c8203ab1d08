// Package metrics records run statistics as Prometheus counters. The tools
// are short-lived batch jobs, so the counters are written once at exit in
// the node-exporter textfile format instead of being served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/specialistvlad/hepscan/internal/dataset"
	"github.com/specialistvlad/hepscan/internal/events"
)

const namespace = "hepscan"

// Recorder owns a private registry so tests and library callers never
// collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	FilesCounted  *prometheus.CounterVec
	Entries       prometheus.Counter
	Queries       *prometheus.CounterVec
	ResolvedFiles prometheus.Counter
}

// NewRecorder creates and registers all counters.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		FilesCounted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Number of data files inspected, by outcome.",
		}, []string{"outcome"}),
		Entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Sum of tree entries over all successfully read files.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_queries_total",
			Help:      "Number of catalog queries, by outcome.",
		}, []string{"outcome"}),
		ResolvedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolved_files_total",
			Help:      "Number of access paths returned by catalog queries.",
		}),
	}
	r.registry.MustRegister(r.FilesCounted, r.Entries, r.Queries, r.ResolvedFiles)
	return r
}

// ObserveReport adds the outcome of one count run.
func (r *Recorder) ObserveReport(rep events.Report) {
	for _, f := range rep.Files {
		r.FilesCounted.WithLabelValues(f.Outcome.String()).Inc()
	}
	r.Entries.Add(float64(rep.Total))
}

// ObserveQuery adds the outcome of one catalog query.
func (r *Recorder) ObserveQuery(listing *dataset.Listing, err error) {
	switch {
	case err != nil:
		r.Queries.WithLabelValues("failed").Inc()
	case len(listing.Files) == 0:
		r.Queries.WithLabelValues("empty").Inc()
	default:
		r.Queries.WithLabelValues("ok").Inc()
		r.ResolvedFiles.Add(float64(len(listing.Files)))
	}
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
