// Package metrics exposes prometheus counters for ingestion and
// reconciliation outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the beam collectors behind one prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	// ProductsIngested counts upsert outcomes by action
	// (inserted, updated, unchanged).
	ProductsIngested *prometheus.CounterVec

	// IngestErrors counts per-product ingestion failures.
	IngestErrors prometheus.Counter

	// DuplicateGroups counts duplicate groups found by the reconciler.
	DuplicateGroups prometheus.Counter

	// DuplicatesMerged counts loser records merged and deleted.
	DuplicatesMerged prometheus.Counter
}

// NewRegistry creates a Registry with all collectors registered.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	ingested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beam_products_ingested_total",
		Help: "Upsert outcomes by action.",
	}, []string{"action"})
	ingestErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beam_ingest_errors_total",
		Help: "Per-product ingestion failures.",
	})
	duplicateGroups := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beam_duplicate_groups_total",
		Help: "Duplicate groups found by reconciliation sweeps.",
	})
	duplicatesMerged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beam_duplicates_merged_total",
		Help: "Loser records merged and deleted.",
	})

	r.MustRegister(ingested, ingestErrors, duplicateGroups, duplicatesMerged)
	return &Registry{
		reg:              r,
		ProductsIngested: ingested,
		IngestErrors:     ingestErrors,
		DuplicateGroups:  duplicateGroups,
		DuplicatesMerged: duplicatesMerged,
	}
}

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
