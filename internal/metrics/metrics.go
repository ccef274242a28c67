// Package metrics exposes Prometheus counters for imports and rendering.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmgeo_imports_total",
		Help: "Uploaded geofence files by source kind and outcome",
	}, []string{"kind", "outcome"})
	CandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmgeo_candidates_total",
		Help: "Total field candidates parsed from uploads",
	})
	FieldsImportedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmgeo_fields_imported_total",
		Help: "Committed candidates by result",
	}, []string{"result"})
	ParseDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "farmgeo_parse_duration_ms",
		Help:    "Geofence file parse duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	TilesRenderedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmgeo_tiles_rendered_total",
		Help: "Overlay tiles served, empty tiles come from cache",
	}, []string{"state"})
)

// Import outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeMalformed = "malformed"
)

func init() {
	prometheus.MustRegister(ImportsTotal)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(FieldsImportedTotal)
	prometheus.MustRegister(ParseDurationMs)
	prometheus.MustRegister(TilesRenderedTotal)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
