package metrics

import (
	"testing"
	"time"
)

func TestRecorderAverages(t *testing.T) {
	rec := NewRecorder(nil)
	base := time.Unix(1700000000, 0)

	for i := 0; i < 4; i++ {
		captured := base.Add(time.Duration(i) * 100 * time.Millisecond)
		rec.Observe(Sample{
			Seq:        uint64(i + 1),
			CapturedAt: captured,
			ReceivedAt: captured.Add(20 * time.Millisecond),
			InferredAt: captured.Add(30 * time.Millisecond),
			Detections: 2,
		})
	}

	st := rec.Snapshot()
	if st.Frames != 4 {
		t.Fatalf("frames = %d, want 4", st.Frames)
	}
	if st.Detections != 8 {
		t.Errorf("detections = %d, want 8", st.Detections)
	}
	if st.AvgNetwork != 20*time.Millisecond {
		t.Errorf("avg network = %v, want 20ms", st.AvgNetwork)
	}
	if st.AvgInference != 10*time.Millisecond {
		t.Errorf("avg inference = %v, want 10ms", st.AvgInference)
	}
	if st.AvgEndToEnd != 30*time.Millisecond {
		t.Errorf("avg end-to-end = %v, want 30ms", st.AvgEndToEnd)
	}
	// 3 intervals of 100ms between 4 frames.
	if st.FPS < 9.9 || st.FPS > 10.1 {
		t.Errorf("fps = %v, want ~10", st.FPS)
	}
}

func TestRecorderClampsClockSkew(t *testing.T) {
	rec := NewRecorder(nil)
	now := time.Unix(1700000000, 0)

	// Publisher clock ahead of the watcher: capture appears after receive.
	rec.Observe(Sample{
		Seq:        1,
		CapturedAt: now.Add(50 * time.Millisecond),
		ReceivedAt: now,
		InferredAt: now.Add(5 * time.Millisecond),
	})

	st := rec.Snapshot()
	if st.AvgNetwork != 0 {
		t.Errorf("avg network = %v, want clamped 0", st.AvgNetwork)
	}
	if st.AvgInference != 5*time.Millisecond {
		t.Errorf("avg inference = %v, want 5ms", st.AvgInference)
	}
}

func TestRecorderEmptySnapshot(t *testing.T) {
	rec := NewRecorder(nil)
	st := rec.Snapshot()
	if st.Frames != 0 || st.FPS != 0 || st.AvgEndToEnd != 0 {
		t.Fatalf("empty snapshot not zero: %+v", st)
	}
}
