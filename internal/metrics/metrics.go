// Package metrics holds the prometheus collectors of the chat engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtychat_turns_total",
		Help: "Chat turns handled, by intent and reply type",
	}, []string{"intent", "reply_type"})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtychat_searches_total",
		Help: "Listing searches, by the strategy that produced the results",
	}, []string{"mode"})

	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "realtychat_store_query_seconds",
		Help:    "Latency of listings store queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtychat_store_errors_total",
		Help: "Failed collaborator calls, by collaborator",
	}, []string{"store"})

	GenerationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtychat_generation_fallbacks_total",
		Help: "Text generation calls that fell back to a canned reply",
	}, []string{"reason"})

	TurnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "realtychat_turn_seconds",
		Help:    "End to end latency of a chat turn",
		Buckets: prometheus.DefBuckets,
	})
)
