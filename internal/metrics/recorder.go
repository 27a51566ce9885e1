package metrics

import (
	"sync"
	"time"
)

// Sample is one processed frame's timestamp triple.
type Sample struct {
	Seq        uint64
	CapturedAt time.Time
	ReceivedAt time.Time
	InferredAt time.Time
	Detections int
}

// Stats is a point-in-time aggregate for CLI display.
type Stats struct {
	Frames       uint64
	Detections   uint64
	AvgNetwork   time.Duration
	AvgInference time.Duration
	AvgEndToEnd  time.Duration
	FPS          float64
}

// Recorder feeds Prometheus and keeps running averages for the live view.
type Recorder struct {
	mu      sync.Mutex
	metrics *PipelineMetrics

	frames     uint64
	detections uint64
	sumNet     time.Duration
	sumInf     time.Duration
	sumE2E     time.Duration
	first      time.Time
	last       time.Time
}

func NewRecorder(m *PipelineMetrics) *Recorder {
	return &Recorder{metrics: m}
}

// Observe records one frame's timestamps. Non-monotonic triples (clock skew
// between peers) are clamped to zero rather than discarded.
func (r *Recorder) Observe(s Sample) {
	net := clampDuration(s.ReceivedAt.Sub(s.CapturedAt))
	inf := clampDuration(s.InferredAt.Sub(s.ReceivedAt))
	e2e := clampDuration(s.InferredAt.Sub(s.CapturedAt))

	if r.metrics != nil {
		r.metrics.NetworkLatency.Observe(net.Seconds())
		r.metrics.InferenceLatency.Observe(inf.Seconds())
		r.metrics.EndToEndLatency.Observe(e2e.Seconds())
		r.metrics.Detections.Add(float64(s.Detections))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	r.detections += uint64(s.Detections)
	r.sumNet += net
	r.sumInf += inf
	r.sumE2E += e2e
	if r.first.IsZero() {
		r.first = s.ReceivedAt
	}
	r.last = s.ReceivedAt
}

func (r *Recorder) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Stats{Frames: r.frames, Detections: r.detections}
	if r.frames > 0 {
		n := time.Duration(r.frames)
		st.AvgNetwork = r.sumNet / n
		st.AvgInference = r.sumInf / n
		st.AvgEndToEnd = r.sumE2E / n
	}
	if span := r.last.Sub(r.first); span > 0 && r.frames > 1 {
		st.FPS = float64(r.frames-1) / span.Seconds()
	}
	return st
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
