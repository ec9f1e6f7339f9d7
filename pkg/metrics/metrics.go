// Package metrics 定义推荐服务的 Prometheus 指标，通过 /metrics 暴露。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration 按路由与状态码统计请求耗时。
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_rec_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RecommendationsTotal 按 modelStatus 统计推荐请求结果。
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_rec_recommendations_total",
			Help: "Total number of recommendation requests by model status",
		},
		[]string{"status"},
	)

	// CacheHitsTotal 统计结果缓存命中次数。
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_rec_cache_hits_total",
			Help: "Total number of result cache hits",
		},
	)

	// CacheMissesTotal 统计结果缓存未命中次数。
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_rec_cache_misses_total",
			Help: "Total number of result cache misses",
		},
	)

	// SnapshotBuildDuration 按层级与结果统计快照构建耗时。
	SnapshotBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_rec_snapshot_build_duration_seconds",
			Help:    "Duration of snapshot builds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"tier", "outcome"},
	)

	// SnapshotBuildsTotal 按层级与结果统计快照构建次数。
	SnapshotBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_rec_snapshot_builds_total",
			Help: "Total number of snapshot builds",
		},
		[]string{"tier", "outcome"},
	)

	// ActiveSnapshotMovies 是当前快照中的电影数。
	ActiveSnapshotMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_rec_active_snapshot_movies",
			Help: "Number of movies in the active snapshot",
		},
	)

	// ActiveSnapshotVocabulary 是当前快照的词表大小。
	ActiveSnapshotVocabulary = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_rec_active_snapshot_vocabulary",
			Help: "Vocabulary size of the active snapshot",
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordSnapshotBuild 记录一次快照构建。
func RecordSnapshotBuild(tier string, d time.Duration, err error) {
	o := outcome(err)
	SnapshotBuildDuration.WithLabelValues(tier, o).Observe(d.Seconds())
	SnapshotBuildsTotal.WithLabelValues(tier, o).Inc()
}

// RecordActiveSnapshot 在快照切换后更新规模指标。
func RecordActiveSnapshot(movies, vocabulary int) {
	ActiveSnapshotMovies.Set(float64(movies))
	ActiveSnapshotVocabulary.Set(float64(vocabulary))
}

// RecordCacheLookup 记录一次缓存查询。
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHitsTotal.Inc()
		return
	}
	CacheMissesTotal.Inc()
}
