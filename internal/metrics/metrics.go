package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ActiveStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sensor_active_streams",
		Help: "Open SSE, websocket and TCP feed streams",
	}, []string{"transport"})

	// Generation
	FramesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensor_frames_generated_total",
		Help: "Total number of frames generated",
	}, []string{"data_type"})

	EncodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sensor_encode_duration_seconds",
		Help:    "Time spent generating and encoding one frame",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	}, []string{"data_type"})

	// Delivery
	FramesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensor_frames_published_total",
		Help: "Total number of frames published to NATS",
	}, []string{"data_type"})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensor_publish_failures_total",
		Help: "Total number of failed NATS publishes",
	}, []string{"data_type"})

	CacheFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensor_cache_failures_total",
		Help: "Total number of failed latest-frame cache writes",
	}, []string{"data_type"})

	// Subscriber
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensor_frames_received_total",
		Help: "Total number of frames received by the subscriber",
	}, []string{"data_type", "result"})
)
