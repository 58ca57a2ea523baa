// Package metrics exposes pipeline outcome counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts upload items by terminal status.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_docs_uploads_total",
		Help: "Upload items by terminal status.",
	}, []string{"status"})

	// ExtractionsTotal counts extraction jobs by terminal outcome.
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_docs_extractions_total",
		Help: "Extraction jobs by terminal outcome.",
	}, []string{"outcome"})

	// ReviewsTotal counts review decisions.
	ReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_docs_reviews_total",
		Help: "Review decisions by kind.",
	}, []string{"decision"})

	// BatchItemsTotal counts fan-out item outcomes.
	BatchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_docs_batch_items_total",
		Help: "Batch item outcomes.",
	}, []string{"outcome"})
)
