package detect

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/metrics"
)

// Worker runs inference downstream of the session: frames in, results out.
// It never blocks the submitting side; when the queue is full the frame is
// dropped and counted, which keeps the data channel reader live under load.
type Worker struct {
	detector Detector
	recorder *metrics.Recorder
	in       chan Frame
	out      chan Result
	dropped  atomic.Uint64
	log      *logging.Logger
}

func NewWorker(detector Detector, recorder *metrics.Recorder, log *logging.Logger) *Worker {
	return &Worker{
		detector: detector,
		recorder: recorder,
		in:       make(chan Frame, 64),
		out:      make(chan Result, 64),
		log:      log,
	}
}

// Submit queues a frame for inference. Returns false when the frame was
// dropped because the worker is behind.
func (w *Worker) Submit(f Frame) bool {
	select {
	case w.in <- f:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Results returns the stream of inference results.
func (w *Worker) Results() <-chan Result { return w.out }

// Run processes frames until the context is cancelled. Start it in its own
// goroutine.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.out)
	for {
		select {
		case <-ctx.Done():
			if n := w.dropped.Load(); n > 0 {
				w.log.Info().Uint64("dropped", n).Msg("detection worker stopped")
			}
			return
		case frame := <-w.in:
			detections := w.detector.Detect(frame)
			res := Result{Frame: frame, InferredAt: time.Now(), Detections: detections}

			if w.recorder != nil {
				w.recorder.Observe(metrics.Sample{
					Seq:        frame.Seq,
					CapturedAt: frame.CapturedAt,
					ReceivedAt: frame.ReceivedAt,
					InferredAt: res.InferredAt,
					Detections: len(detections),
				})
			}

			select {
			case w.out <- res:
			default:
				// Consumer is behind; results are advisory, drop.
			}
		}
	}
}
