package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshgen_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meshgen_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Probe Metrics
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshgen_probes_total",
			Help: "Total number of metadata probes",
		},
		[]string{"status"},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meshgen_probe_duration_seconds",
			Help:    "Metadata probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Build Metrics
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshgen_builds_total",
			Help: "Total number of mesh builds",
		},
		[]string{"projection", "status"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meshgen_build_duration_seconds",
			Help:    "Mesh build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"projection"},
	)

	MeshVertices = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meshgen_mesh_vertices",
			Help:    "Vertex count of generated meshes",
			Buckets: prometheus.ExponentialBuckets(4, 4, 8),
		},
		[]string{"projection"},
	)

	MeshTriangles = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meshgen_mesh_triangles",
			Help:    "Triangle count of generated meshes",
			Buckets: prometheus.ExponentialBuckets(2, 4, 8),
		},
		[]string{"projection"},
	)

	BuildsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshgen_builds_in_progress",
			Help: "Number of builds currently being processed",
		},
	)

	BuildsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshgen_builds_queue_depth",
			Help: "Number of builds waiting in queue",
		},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshgen_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"kind"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshgen_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"kind"},
	)

	// Storage Metrics
	ArtifactUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshgen_artifact_uploads_total",
			Help: "Total number of mesh artifacts uploaded to storage",
		},
	)

	ArtifactSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meshgen_artifact_size_bytes",
			Help:    "Size of uploaded mesh artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
)

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordProbe records metrics for a metadata probe
func RecordProbe(status string, duration float64) {
	ProbesTotal.WithLabelValues(status).Inc()
	ProbeDuration.Observe(duration)
}

// RecordBuild records metrics for a completed mesh build
func RecordBuild(projection, status string, duration float64, vertices, triangles int) {
	BuildsTotal.WithLabelValues(projection, status).Inc()
	BuildDuration.WithLabelValues(projection).Observe(duration)
	if vertices > 0 {
		MeshVertices.WithLabelValues(projection).Observe(float64(vertices))
		MeshTriangles.WithLabelValues(projection).Observe(float64(triangles))
	}
}

// UpdateBuildMetrics updates gauges for builds in flight and queued
func UpdateBuildMetrics(inProgress, queueDepth int) {
	BuildsInProgress.Set(float64(inProgress))
	BuildsQueueDepth.Set(float64(queueDepth))
}

// RecordCacheAccess records a cache access
func RecordCacheAccess(kind string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(kind).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(kind).Inc()
	}
}

// RecordArtifactUpload records an artifact upload
func RecordArtifactUpload(sizeBytes int64) {
	ArtifactUploadsTotal.Inc()
	ArtifactSizeBytes.Observe(float64(sizeBytes))
}
