package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapnotes_http_requests_total",
		Help: "Total HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "code"})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapnotes_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	RecordsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapnotes_records_submitted_total",
		Help: "Total records stored",
	})
	CommentsAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapnotes_comments_added_total",
		Help: "Total comments appended to threads",
	})
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapnotes_queries_total",
		Help: "Total queries by candidate source (list, index, qdrant)",
	}, []string{"source"})
	QueryCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapnotes_query_candidates",
		Help:    "Number of candidate records resolved per query",
		Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
	})
	QueryMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapnotes_query_matches",
		Help:    "Number of records returned per query",
		Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
	})
	StaleIndexEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapnotes_stale_index_entries_total",
		Help: "Total index entries skipped because the record could not be resolved",
	})
	CommentConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapnotes_comment_conflicts_total",
		Help: "Total comment appends that gave up after exhausting compare-and-swap retries",
	})
	MirrorFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapnotes_mirror_failures_total",
		Help: "Total failed search mirror operations by operation",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
	prometheus.MustRegister(RecordsSubmittedTotal)
	prometheus.MustRegister(CommentsAddedTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryCandidates)
	prometheus.MustRegister(QueryMatches)
	prometheus.MustRegister(StaleIndexEntriesTotal)
	prometheus.MustRegister(CommentConflictsTotal)
	prometheus.MustRegister(MirrorFailuresTotal)
}

// Handler exposes the registered collectors for scraping at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
