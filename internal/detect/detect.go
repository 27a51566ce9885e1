package detect

import "time"

// BoundingBox is normalized to the frame: all fields in [0,1].
type BoundingBox struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	W float64 `msgpack:"w" json:"w"`
	H float64 `msgpack:"h" json:"h"`
}

// Detection is one detected object in a frame.
type Detection struct {
	Label      string      `msgpack:"label" json:"label"`
	Confidence float64     `msgpack:"confidence" json:"confidence"`
	Box        BoundingBox `msgpack:"box" json:"box"`
}

// Frame is one sampled video frame as seen by the watcher: the publisher's
// capture timestamp plus the local receive timestamp.
type Frame struct {
	Seq        uint64
	CapturedAt time.Time
	ReceivedAt time.Time
}

// Result is the detector output for one frame.
type Result struct {
	Frame      Frame
	InferredAt time.Time
	Detections []Detection
}

// Detector produces detections for a frame. Implementations must be safe for
// use from a single worker goroutine; they need not be concurrent.
type Detector interface {
	Detect(frame Frame) []Detection
}

var mockLabels = []string{
	"person", "bicycle", "car", "dog", "cat", "chair", "bottle", "laptop",
}

// MockDetector emits deterministic pseudo-detections derived from the frame
// sequence number. It stands in for the ONNX path so the pipeline, protocol
// and metrics can run without a model.
type MockDetector struct{}

func NewMockDetector() *MockDetector { return &MockDetector{} }

func (d *MockDetector) Detect(frame Frame) []Detection {
	h := mix(frame.Seq)
	count := int(h % 3) // 0..2 objects per frame
	out := make([]Detection, 0, count)
	for i := 0; i < count; i++ {
		h = mix(h + uint64(i) + 1)
		label := mockLabels[h%uint64(len(mockLabels))]
		x := float64(h%64) / 128.0
		y := float64((h>>8)%64) / 128.0
		out = append(out, Detection{
			Label:      label,
			Confidence: 0.5 + float64(h%50)/100.0,
			Box:        BoundingBox{X: x, Y: y, W: 0.2, H: 0.2},
		})
	}
	return out
}

// mix is a splitmix64 step, enough to decorrelate sequence numbers.
func mix(v uint64) uint64 {
	v += 0x9e3779b97f4a7c15
	v = (v ^ (v >> 30)) * 0xbf58476d1ce4e5b9
	v = (v ^ (v >> 27)) * 0x94d049bb133111eb
	return v ^ (v >> 31)
}
