package signaling

import (
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/protocol"
)

// Handler routes incoming signaling messages onto typed channels so the
// session and command layers select on exactly what they care about.
type Handler struct {
	PeerJoined chan string
	PeerLeft   chan string
	Offers     chan *protocol.Message
	Answers    chan *protocol.Message
	Candidates chan *protocol.Message
	Done       chan struct{}

	in <-chan *protocol.Message
}

// NewHandler creates a handler reading from the client's incoming stream.
func NewHandler(client *Client) *Handler {
	return newHandler(client.Incoming())
}

func newHandler(in <-chan *protocol.Message) *Handler {
	return &Handler{
		PeerJoined: make(chan string, 1),
		PeerLeft:   make(chan string, 1),
		Offers:     make(chan *protocol.Message, 4),
		Answers:    make(chan *protocol.Message, 4),
		Candidates: make(chan *protocol.Message, 32),
		Done:       make(chan struct{}),
		in:         in,
	}
}

// Start consumes the incoming stream until it closes. Run it in its own
// goroutine; Done is closed when the stream ends.
func (h *Handler) Start() {
	defer close(h.Done)
	for msg := range h.in {
		switch msg.Type {
		case protocol.KindPeerJoined:
			h.PeerJoined <- msg.From
		case protocol.KindPeerLeft:
			h.PeerLeft <- msg.From
		case protocol.KindOffer:
			h.Offers <- msg
		case protocol.KindAnswer:
			h.Answers <- msg
		case protocol.KindCandidate:
			h.Candidates <- msg
		default:
			// Unknown server messages are ignored.
		}
	}
}
