package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	GraphUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelgraph_graph_users_total",
		Help: "Total number of users registered in the follow graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelgraph_graph_edges_total",
		Help: "Total number of follow edges in the graph.",
	})

	FollowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgraph_follows_total",
		Help: "Total number of follow operations accepted.",
	})

	UnfollowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgraph_unfollows_total",
		Help: "Total number of unfollow operations accepted.",
	})

	FollowsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgraph_follows_rejected_total",
		Help: "Total number of follow operations rejected, by reason.",
	}, []string{"reason"})

	LoadWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgraph_load_warnings_total",
		Help: "Total number of rows skipped during bulk load, by kind.",
	}, []string{"kind"})

	LoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reelgraph_load_seconds",
		Help:    "Time spent on a full graph load from storage.",
		Buckets: prometheus.DefBuckets,
	})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reelgraph_sync_seconds",
		Help:    "Time spent flushing the edge set back to storage.",
		Buckets: prometheus.DefBuckets,
	})

	SyncFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgraph_sync_failures_total",
		Help: "Total number of sync transactions that rolled back.",
	})

	RecommendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelgraph_recommend_seconds",
		Help:    "Time spent computing one recommendation request.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	RecommendCandidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgraph_recommend_candidates_total",
		Help: "Total number of candidates produced, by strategy.",
	}, []string{"strategy"})
)
