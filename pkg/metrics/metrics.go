package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "api_http_requests_total", Help: "HTTP requests"},
		[]string{"method", "path", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campaign_cache_hits_total", Help: "Campaign list cache hits"},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campaign_cache_misses_total", Help: "Campaign list cache misses"},
	)
	CacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campaign_cache_evictions_total", Help: "Cache keys evicted by writes"},
	)

	ReviewEventsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "review_events_published_total", Help: "Review-submitted events published"},
	)
	ReviewEventsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "review_events_failed_total", Help: "Review-submitted publish failures"},
	)

	WorkerEventsConsumed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "reward_worker_events_consumed_total", Help: "Events consumed"},
	)
	WorkerRewardsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "reward_worker_rewards_issued_total", Help: "Rewards issued"},
	)
	WorkerDuplicatesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "reward_worker_duplicates_skipped_total", Help: "Duplicate events discarded"},
	)
	WorkerProcessDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reward_worker_process_duration_seconds",
			Help:    "Time spent processing an event",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		APIRequestsTotal, APIRequestDuration,
		CacheHitsTotal, CacheMissesTotal, CacheEvictionsTotal,
		ReviewEventsPublishedTotal, ReviewEventsFailedTotal,
		WorkerEventsConsumed, WorkerRewardsIssued, WorkerDuplicatesSkipped, WorkerProcessDuration,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
