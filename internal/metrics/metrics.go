// Package metrics exposes Prometheus collectors for lookups, pagination,
// playlists, caches and the HTTP API.
//
// Collectors live on a Metrics value with its own registry. All methods are
// safe on a nil *Metrics so callers may run without instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readalong"

// Metrics holds the registered collectors.
type Metrics struct {
	registry *prometheus.Registry

	lookups          *prometheus.CounterVec
	lookupDuration   prometheus.Histogram
	pages            *prometheus.CounterVec
	cacheEvents      *prometheus.CounterVec
	blobDecodes      *prometheus.CounterVec
	playlistOps      *prometheus.CounterVec
	bytesFreed       prometheus.Counter
	ingestedWords    prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	compressionRatio prometheus.Histogram
}

// New builds a Metrics value with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Word-at-time lookups by result status",
		}, []string{"status"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of word-at-time lookups in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Reader pages served by status",
		}, []string{"status"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and invalidations",
		}, []string{"cache", "event"}),
		blobDecodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timing_blob_decodes_total",
			Help:      "Timing blob decodes by result",
		}, []string{"result"}),
		playlistOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_operations_total",
			Help:      "Playlist ensure and cleanup operations by outcome",
		}, []string{"operation", "result"}),
		bytesFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_bytes_freed_total",
			Help:      "Bytes reclaimed by voice cleanup",
		}),
		ingestedWords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_words_total",
			Help:      "Timed words written by ingest",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		compressionRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "timing_compression_ratio",
			Help:      "Raw to stored size ratio of packed timing blobs",
			Buckets:   []float64{1, 1.5, 2, 3, 4, 6, 8, 12},
		}),
	}

	m.registry.MustRegister(
		m.lookups,
		m.lookupDuration,
		m.pages,
		m.cacheEvents,
		m.blobDecodes,
		m.playlistOps,
		m.bytesFreed,
		m.ingestedWords,
		m.httpRequests,
		m.httpDuration,
		m.compressionRatio,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveLookup records a lookup outcome.
func (m *Metrics) ObserveLookup(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(status).Inc()
	m.lookupDuration.Observe(elapsed.Seconds())
}

// ObservePage records a reader page outcome.
func (m *Metrics) ObservePage(status string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(status).Inc()
}

// CacheHit records a cache hit.
func (m *Metrics) CacheHit(cache string) { m.cacheEvent(cache, "hit") }

// CacheMiss records a cache miss.
func (m *Metrics) CacheMiss(cache string) { m.cacheEvent(cache, "miss") }

// CacheInvalidated records entries dropped by an explicit invalidation.
func (m *Metrics) CacheInvalidated(cache string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvents.WithLabelValues(cache, "invalidate").Add(float64(n))
}

func (m *Metrics) cacheEvent(cache, event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(cache, event).Inc()
}

// ObserveDecode records a timing blob decode result (ok, corrupt, legacy).
func (m *Metrics) ObserveDecode(result string) {
	if m == nil {
		return
	}
	m.blobDecodes.WithLabelValues(result).Inc()
}

// ObservePlaylist records a playlist operation outcome.
func (m *Metrics) ObservePlaylist(operation, result string) {
	if m == nil {
		return
	}
	m.playlistOps.WithLabelValues(operation, result).Inc()
}

// AddBytesFreed adds to the cleanup reclaimed-bytes counter.
func (m *Metrics) AddBytesFreed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesFreed.Add(float64(n))
}

// ObserveIngest records words written and the compression ratio of each blob.
func (m *Metrics) ObserveIngest(words int, ratios ...float64) {
	if m == nil {
		return
	}
	if words > 0 {
		m.ingestedWords.Add(float64(words))
	}
	for _, r := range ratios {
		if r > 0 {
			m.compressionRatio.Observe(r)
		}
	}
}

// ObserveHTTP records one served API request.
func (m *Metrics) ObserveHTTP(route, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
