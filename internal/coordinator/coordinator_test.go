package coordinator

import (
	"encoding/json"
	"testing"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/metrics"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/protocol"
)

// newTestCoordinator builds a coordinator whose state-transition methods are
// driven directly, without the Run loop or websocket pumps.
func newTestCoordinator() *Coordinator {
	log := logging.New(false)
	return New(log, metrics.NewCoordinatorMetrics(nil))
}

func newTestClient(co *Coordinator, id string) *Client {
	c := NewClient(id, nil, co, logging.New(false))
	co.clients[c] = struct{}{}
	return c
}

// drain empties the client's send buffer and returns what was queued.
func drain(c *Client) []*protocol.Message {
	var out []*protocol.Message
	for {
		select {
		case m := <-c.send:
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestJoinCreatesRoomAndNotifiesMembers(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")

	co.HandleJoin(x, "AB12CD")
	if got := co.snapshot().Rooms["AB12CD"]; got != 1 {
		t.Fatalf("member count after first join = %d, want 1", got)
	}
	if msgs := drain(x); len(msgs) != 0 {
		t.Fatalf("sole member received %d messages, want 0", len(msgs))
	}

	co.HandleJoin(y, "AB12CD")
	if got := co.snapshot().Rooms["AB12CD"]; got != 2 {
		t.Fatalf("member count after second join = %d, want 2", got)
	}
	msgs := drain(x)
	if len(msgs) != 1 || msgs[0].Type != protocol.KindPeerJoined || msgs[0].From != "y" {
		t.Fatalf("expected peer-joined(y) at x, got %+v", msgs)
	}
	if msgs := drain(y); len(msgs) != 0 {
		t.Fatalf("joiner received %d messages, want 0", len(msgs))
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")

	co.HandleJoin(x, "room1")
	co.HandleJoin(y, "room1")
	drain(x)

	co.HandleJoin(y, "room1")
	if got := co.snapshot().Rooms["ROOM1"]; got != 2 {
		t.Fatalf("member count after duplicate join = %d, want 2", got)
	}
	if msgs := drain(x); len(msgs) != 0 {
		t.Fatalf("duplicate join produced %d notifications, want 0", len(msgs))
	}
}

func TestRoomCodesAreCaseInsensitive(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")

	co.HandleJoin(x, "ab12cd")
	co.HandleJoin(y, "AB12CD")

	snap := co.snapshot()
	if len(snap.Rooms) != 1 {
		t.Fatalf("got %d rooms, want 1: %v", len(snap.Rooms), snap.Rooms)
	}
	if snap.Rooms["AB12CD"] != 2 {
		t.Fatalf("member count = %d, want 2", snap.Rooms["AB12CD"])
	}
}

func TestRelayReachesOnlyOtherMembers(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")
	co.HandleJoin(x, "AB12CD")
	co.HandleJoin(y, "AB12CD")
	drain(x)

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	co.HandleRelay(x, &protocol.Message{Type: protocol.KindOffer, Room: "AB12CD", Payload: payload})

	msgs := drain(y)
	if len(msgs) != 1 {
		t.Fatalf("other member received %d messages, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Type != protocol.KindOffer || got.From != "x" || string(got.Payload) != string(payload) {
		t.Fatalf("relayed message mangled: %+v", got)
	}
	if msgs := drain(x); len(msgs) != 0 {
		t.Fatalf("sender received its own relay back: %+v", msgs)
	}
}

func TestRelayBroadcastsToAllOtherMembers(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")
	z := newTestClient(co, "z")
	for _, c := range []*Client{x, y, z} {
		co.HandleJoin(c, "crowded")
	}
	drain(x)
	drain(y)
	drain(z)

	co.HandleRelay(x, &protocol.Message{Type: protocol.KindCandidate, Room: "crowded"})

	if msgs := drain(y); len(msgs) != 1 {
		t.Errorf("y received %d messages, want 1", len(msgs))
	}
	if msgs := drain(z); len(msgs) != 1 {
		t.Errorf("z received %d messages, want 1", len(msgs))
	}
	if msgs := drain(x); len(msgs) != 0 {
		t.Errorf("sender received %d messages, want 0", len(msgs))
	}
}

func TestRelayFromNonMemberIsSilentNoOp(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")
	co.HandleJoin(y, "ZZ99ZZ")

	co.HandleRelay(x, &protocol.Message{Type: protocol.KindAnswer, Room: "ZZ99ZZ"})

	if msgs := drain(y); len(msgs) != 0 {
		t.Fatalf("member received %d messages from a non-member relay, want 0", len(msgs))
	}
	// The sender gets no error event either.
	if msgs := drain(x); len(msgs) != 0 {
		t.Fatalf("non-member sender received %d messages, want 0", len(msgs))
	}
}

func TestRelayToUnknownRoomIsSilentNoOp(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")

	co.HandleRelay(x, &protocol.Message{Type: protocol.KindOffer, Room: "NOSUCH"})

	if msgs := drain(x); len(msgs) != 0 {
		t.Fatalf("sender received %d messages, want 0", len(msgs))
	}
	if len(co.snapshot().Rooms) != 0 {
		t.Fatal("relay to unknown room must not create it")
	}
}

func TestDisconnectNotifiesAndReapsEmptyRooms(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")
	co.HandleJoin(x, "AB12CD")
	co.HandleJoin(y, "AB12CD")
	drain(x)

	co.HandleDisconnect(y)
	msgs := drain(x)
	if len(msgs) != 1 || msgs[0].Type != protocol.KindPeerLeft || msgs[0].From != "y" {
		t.Fatalf("expected peer-left(y) at x, got %+v", msgs)
	}
	if got := co.snapshot().Rooms["AB12CD"]; got != 1 {
		t.Fatalf("member count after disconnect = %d, want 1", got)
	}

	co.HandleDisconnect(x)
	snap := co.snapshot()
	if _, ok := snap.Rooms["AB12CD"]; ok {
		t.Fatal("room must be deleted when the last member leaves")
	}
	if snap.Connections != 0 {
		t.Fatalf("connections after all disconnects = %d, want 0", snap.Connections)
	}
}

func TestDisconnectLeavesEveryRoom(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")
	y := newTestClient(co, "y")
	co.HandleJoin(x, "r1")
	co.HandleJoin(x, "r2")
	co.HandleJoin(y, "r2")

	co.HandleDisconnect(x)

	snap := co.snapshot()
	if _, ok := snap.Rooms["R1"]; ok {
		t.Fatal("R1 should be deleted, x was its only member")
	}
	if snap.Rooms["R2"] != 1 {
		t.Fatalf("R2 member count = %d, want 1", snap.Rooms["R2"])
	}
	msgs := drain(y)
	if len(msgs) != 1 || msgs[0].Type != protocol.KindPeerLeft {
		t.Fatalf("expected one peer-left at y, got %+v", msgs)
	}
}

// Membership equals exactly the participants that joined and have not left,
// across an arbitrary interleaving of joins and disconnects.
func TestMembershipSetEquality(t *testing.T) {
	co := newTestCoordinator()
	ids := []string{"a", "b", "c", "d"}
	clients := make(map[string]*Client, len(ids))
	for _, id := range ids {
		clients[id] = newTestClient(co, id)
	}

	co.HandleJoin(clients["a"], "R")
	co.HandleJoin(clients["b"], "R")
	co.HandleJoin(clients["c"], "R")
	co.HandleDisconnect(clients["b"])
	co.HandleJoin(clients["d"], "R")
	co.HandleDisconnect(clients["a"])

	room := co.rooms["R"]
	want := map[string]bool{"c": true, "d": true}
	if room.size() != len(want) {
		t.Fatalf("member count = %d, want %d", room.size(), len(want))
	}
	for id := range want {
		if !room.has(id) {
			t.Errorf("expected %q to be a member", id)
		}
	}
}

func TestSnapshotOnlyListsLiveRooms(t *testing.T) {
	co := newTestCoordinator()
	x := newTestClient(co, "x")

	if n := len(co.snapshot().Rooms); n != 0 {
		t.Fatalf("fresh coordinator has %d rooms, want 0", n)
	}
	co.HandleJoin(x, "solo")
	if co.snapshot().Rooms["SOLO"] != 1 {
		t.Fatal("room with one member missing from snapshot")
	}
	co.HandleDisconnect(x)
	if n := len(co.snapshot().Rooms); n != 0 {
		t.Fatalf("snapshot still lists %d rooms after last leave, want 0", n)
	}
}
