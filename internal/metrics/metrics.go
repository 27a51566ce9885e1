package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CoordinatorMetrics covers the signaling server's hot path. Counters are
// updated from the coordinator's event loop only, so no extra locking.
type CoordinatorMetrics struct {
	ActiveRooms       prometheus.Gauge
	ActiveConnections prometheus.Gauge
	Joins             prometheus.Counter
	Relayed           *prometheus.CounterVec
	DroppedSends      prometheus.Counter
}

func NewCoordinatorMetrics(reg prometheus.Registerer) *CoordinatorMetrics {
	m := &CoordinatorMetrics{
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "peercam", Subsystem: "signaling",
			Name: "active_rooms", Help: "Rooms with at least one member.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "peercam", Subsystem: "signaling",
			Name: "active_connections", Help: "Open websocket connections.",
		}),
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "peercam", Subsystem: "signaling",
			Name: "joins_total", Help: "Processed join requests.",
		}),
		Relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "peercam", Subsystem: "signaling",
			Name: "relayed_total", Help: "Relayed signaling messages.",
		}, []string{"kind"}),
		DroppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "peercam", Subsystem: "signaling",
			Name: "dropped_sends_total", Help: "Messages dropped on full client buffers.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ActiveRooms, m.ActiveConnections, m.Joins, m.Relayed, m.DroppedSends)
	}
	return m
}

// PipelineMetrics covers the watch-side frame pipeline: per-frame latency
// split into network (capture to receive) and inference (receive to inferred).
type PipelineMetrics struct {
	FramesReceived   prometheus.Counter
	BytesReceived    prometheus.Counter
	NetworkLatency   prometheus.Histogram
	InferenceLatency prometheus.Histogram
	EndToEndLatency  prometheus.Histogram
	Detections       prometheus.Counter
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	latencyBuckets := prometheus.ExponentialBuckets(0.001, 2, 12)
	m := &PipelineMetrics{
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "peercam", Subsystem: "pipeline",
			Name: "frames_received_total", Help: "Video frames received from the peer.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "peercam", Subsystem: "pipeline",
			Name: "bytes_received_total", Help: "RTP payload bytes received.",
		}),
		NetworkLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "peercam", Subsystem: "pipeline",
			Name: "network_latency_seconds", Help: "Capture to receive latency.",
			Buckets: latencyBuckets,
		}),
		InferenceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "peercam", Subsystem: "pipeline",
			Name: "inference_latency_seconds", Help: "Receive to inference latency.",
			Buckets: latencyBuckets,
		}),
		EndToEndLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "peercam", Subsystem: "pipeline",
			Name: "end_to_end_latency_seconds", Help: "Capture to inference latency.",
			Buckets: latencyBuckets,
		}),
		Detections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "peercam", Subsystem: "pipeline",
			Name: "detections_total", Help: "Objects detected across all frames.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.FramesReceived, m.BytesReceived, m.NetworkLatency,
			m.InferenceLatency, m.EndToEndLatency, m.Detections)
	}
	return m
}
