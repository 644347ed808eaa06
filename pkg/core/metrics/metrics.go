// Package metrics exposes prometheus counters for the core's classification
// and apply/rollback outcomes, grounded on the reorgCount-style promauto
// counters used across the pack's chain-following implementations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HeadersClassified counts classifyNewHeader/classifyHeaders outcomes by
	// label ("continues", "alternative", "useless", "invalid", "valid").
	HeadersClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "epochra",
		Subsystem: "core",
		Name:      "headers_classified_total",
		Help:      "Number of headers classified, by outcome.",
	}, []string{"outcome"})

	// BlocksApplied counts blocks folded into the main chain by applyBlocks.
	BlocksApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "epochra",
		Subsystem: "core",
		Name:      "blocks_applied_total",
		Help:      "Number of blocks applied to the main chain.",
	})

	// BlocksRolledBack counts blocks undone by rollbackBlocks.
	BlocksRolledBack = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "epochra",
		Subsystem: "core",
		Name:      "blocks_rolled_back_total",
		Help:      "Number of blocks rolled back from the main chain.",
	})

	// Reorgs counts chain-switch events: a rollbackBlocks immediately followed
	// by an applyBlocks of an alternative fork.
	Reorgs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "epochra",
		Subsystem: "core",
		Name:      "reorgs_total",
		Help:      "Number of times the main chain tip switched to a different fork.",
	})

	// VerifyBlocksDuration observes how long verifyBlocks takes, by pipeline
	// stage that ultimately decided the outcome ("structural", "ssc", "txp",
	// "ok").
	VerifyBlocksDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "epochra",
		Subsystem: "core",
		Name:      "verify_blocks_seconds",
		Help:      "Time spent in verifyBlocks, by the stage that produced the final outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
)
