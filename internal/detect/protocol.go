package detect

import "github.com/vmihailenco/msgpack/v5"

// ChannelLabel is the data channel carrying frame timestamps one way and
// detection results the other.
const ChannelLabel = "frames"

// Data channel message types.
const (
	MessageTypeFrameSample = "frame-sample"
	MessageTypeDetections  = "detections"
)

// Message wraps all data channel traffic.
type Message struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// FrameSamplePayload is sent by the publisher once per sampled frame.
// Timestamps travel as unix microseconds to stay clock-comparable across
// serialization.
type FrameSamplePayload struct {
	Seq        uint64 `msgpack:"seq"`
	CapturedAt int64  `msgpack:"capturedAt"`
}

// DetectionsPayload is sent back by the watcher after inference.
type DetectionsPayload struct {
	Seq        uint64      `msgpack:"seq"`
	InferredAt int64       `msgpack:"inferredAt"`
	Detections []Detection `msgpack:"detections"`
}

// NewMessage creates a Message with the payload encoded in place.
func NewMessage(t string, payload any) (Message, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: b}, nil
}

// DecodePayload decodes the message payload into v.
func (m Message) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// Encode serializes the whole message for the wire.
func (m Message) Encode() ([]byte, error) {
	return msgpack.Marshal(m)
}

// DecodeMessage parses a wire message.
func DecodeMessage(b []byte) (Message, error) {
	var m Message
	err := msgpack.Unmarshal(b, &m)
	return m, err
}
