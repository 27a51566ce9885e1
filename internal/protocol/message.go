package protocol

import "encoding/json"

// Message kinds exchanged over the signaling websocket. The first four are
// sent by peers; peer-joined and peer-left originate from the server.
const (
	KindJoin       = "join"
	KindOffer      = "offer"
	KindAnswer     = "answer"
	KindCandidate  = "candidate"
	KindPeerJoined = "peer-joined"
	KindPeerLeft   = "peer-left"
)

// Message is the envelope for all signaling traffic. Payload carries the
// session description or ICE candidate verbatim; the server never parses it.
type Message struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsRelay reports whether kind is a peer-to-peer payload the server forwards
// without inspection.
func IsRelay(kind string) bool {
	return kind == KindOffer || kind == KindAnswer || kind == KindCandidate
}
