package coordinator

import (
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/metrics"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/protocol"
)

// Inbound is a message received from a connected participant.
type Inbound struct {
	Client *Client
	Msg    *protocol.Message
}

// Snapshot is a read-only view of the coordinator state for diagnostics.
type Snapshot struct {
	Rooms       map[string]int `json:"rooms"`
	Connections int            `json:"connections"`
}

// Coordinator is a rendezvous and relay point for WebRTC session
// establishment. It owns the room/member map exclusively: a single Run
// goroutine applies every join, relay and disconnect as one atomic step, so
// operations on the same room never interleave. It never inspects relayed
// payloads and keeps no message history.
type Coordinator struct {
	Register   chan *Client
	Unregister chan *Client
	Inbound    chan Inbound

	rooms   map[string]*Room
	clients map[*Client]struct{}

	snapshots chan chan Snapshot
	log       *logging.Logger
	metrics   *metrics.CoordinatorMetrics
}

// New creates a coordinator with empty state. Pass it to the transport layer
// and start Run in its own goroutine; nothing else may touch the maps.
func New(log *logging.Logger, m *metrics.CoordinatorMetrics) *Coordinator {
	return &Coordinator{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan Inbound, 64),
		rooms:      make(map[string]*Room),
		clients:    make(map[*Client]struct{}),
		snapshots:  make(chan chan Snapshot),
		log:        log,
		metrics:    m,
	}
}

// Run is the coordinator's event loop. Every state mutation happens here.
func (co *Coordinator) Run() {
	for {
		select {
		case c := <-co.Register:
			co.clients[c] = struct{}{}
			co.metrics.ActiveConnections.Set(float64(len(co.clients)))
			c.log.Debug().Msg("participant connected")

		case c := <-co.Unregister:
			co.HandleDisconnect(c)
			close(c.send)

		case in := <-co.Inbound:
			switch {
			case in.Msg.Type == protocol.KindJoin:
				co.HandleJoin(in.Client, in.Msg.Room)
			case protocol.IsRelay(in.Msg.Type):
				co.HandleRelay(in.Client, in.Msg)
			default:
				in.Client.log.Debug().Str("kind", in.Msg.Type).Msg("unknown message kind ignored")
			}

		case reply := <-co.snapshots:
			reply <- co.snapshot()
		}
	}
}

// HandleJoin adds c to the room's member set, creating the room when it does
// not exist yet. Joining a room the participant is already in is a no-op.
// Every other current member is notified with a peer-joined event.
func (co *Coordinator) HandleJoin(c *Client, code string) {
	code = NormalizeCode(code)
	if code == "" {
		c.log.Debug().Msg("join with empty room code ignored")
		return
	}

	room, ok := co.rooms[code]
	if !ok {
		room = newRoom(code)
		co.rooms[code] = room
		co.log.Info().Str("room", code).Msg("room created")
	}
	if room.has(c.ID) {
		return
	}

	notify := &protocol.Message{Type: protocol.KindPeerJoined, Room: code, From: c.ID}
	for _, other := range room.others(c.ID) {
		if !other.deliver(notify) {
			co.metrics.DroppedSends.Inc()
		}
	}

	room.add(c)
	c.rooms[code] = struct{}{}

	co.metrics.Joins.Inc()
	co.metrics.ActiveRooms.Set(float64(len(co.rooms)))
	c.log.Info().Str("room", code).Int("members", room.size()).Msg("participant joined")
	if room.size() > 2 {
		c.log.Debug().Str("room", code).Int("members", room.size()).Msg("room has more than two members")
	}
}

// HandleRelay forwards msg's payload verbatim to every other member of the
// room. When the sender is not currently a member the relay is a silent
// no-op; that is the expected race of a peer disconnecting mid-handshake,
// not an error.
func (co *Coordinator) HandleRelay(c *Client, msg *protocol.Message) {
	code := NormalizeCode(msg.Room)
	room, ok := co.rooms[code]
	if !ok || !room.has(c.ID) {
		c.log.Debug().Str("room", code).Str("kind", msg.Type).Msg("relay from non-member dropped")
		return
	}

	out := &protocol.Message{Type: msg.Type, Room: code, From: c.ID, Payload: msg.Payload}
	for _, other := range room.others(c.ID) {
		if other.deliver(out) {
			co.metrics.Relayed.WithLabelValues(msg.Type).Inc()
		} else {
			co.metrics.DroppedSends.Inc()
		}
	}
}

// HandleDisconnect removes c from every room it belongs to. Rooms left empty
// are deleted synchronously; remaining members receive a peer-left event.
// A transport-level drop and an explicit leave are the same operation.
func (co *Coordinator) HandleDisconnect(c *Client) {
	for code := range c.rooms {
		room, ok := co.rooms[code]
		if !ok {
			continue
		}
		room.remove(c.ID)
		if room.size() == 0 {
			delete(co.rooms, code)
			co.log.Info().Str("room", code).Msg("room deleted")
			continue
		}
		notify := &protocol.Message{Type: protocol.KindPeerLeft, Room: code, From: c.ID}
		for _, other := range room.others(c.ID) {
			if !other.deliver(notify) {
				co.metrics.DroppedSends.Inc()
			}
		}
	}
	c.rooms = make(map[string]struct{})

	delete(co.clients, c)
	co.metrics.ActiveRooms.Set(float64(len(co.rooms)))
	co.metrics.ActiveConnections.Set(float64(len(co.clients)))
	c.log.Debug().Msg("participant disconnected")
}

// RoomSnapshot returns per-room member counts and the connection total. It is
// answered by the Run loop, so callers see a consistent view.
func (co *Coordinator) RoomSnapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	co.snapshots <- reply
	return <-reply
}

func (co *Coordinator) snapshot() Snapshot {
	s := Snapshot{Rooms: make(map[string]int, len(co.rooms)), Connections: len(co.clients)}
	for code, room := range co.rooms {
		s.Rooms[code] = room.size()
	}
	return s
}
