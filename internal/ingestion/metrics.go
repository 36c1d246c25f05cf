package ingestion

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// linesTotal counts log lines by outcome: shaped, rejected, no_shape,
	// unparsable or no_query.
	linesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qshape_lines_total",
		Help: "Log lines processed by outcome",
	}, []string{"outcome"})

	// featuresTotal counts feature tags met while decomposing.
	featuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qshape_features_total",
		Help: "Query features met while decomposing",
	}, []string{"feature"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qshape_batch_duration_seconds",
		Help:    "Time to decompose one batch of log lines",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	})

	graphsPerQuery = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qshape_graphs_per_query",
		Help:    "Pattern graphs produced per query",
		Buckets: []float64{1, 2, 4, 8, 16, 64, 256, 1024},
	})
)
