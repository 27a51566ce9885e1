package signaling

import (
	"testing"
	"time"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/protocol"
)

func TestHandlerRoutesByKind(t *testing.T) {
	in := make(chan *protocol.Message, 8)
	h := newHandler(in)
	go h.Start()

	in <- &protocol.Message{Type: protocol.KindPeerJoined, From: "peer-a"}
	in <- &protocol.Message{Type: protocol.KindOffer, From: "peer-a"}
	in <- &protocol.Message{Type: protocol.KindAnswer, From: "peer-a"}
	in <- &protocol.Message{Type: protocol.KindCandidate, From: "peer-a"}
	in <- &protocol.Message{Type: protocol.KindPeerLeft, From: "peer-a"}

	if got := recvString(t, h.PeerJoined); got != "peer-a" {
		t.Errorf("peer joined from %q, want peer-a", got)
	}
	if msg := recvMessage(t, h.Offers); msg.Type != protocol.KindOffer {
		t.Errorf("got %q on offers channel", msg.Type)
	}
	if msg := recvMessage(t, h.Answers); msg.Type != protocol.KindAnswer {
		t.Errorf("got %q on answers channel", msg.Type)
	}
	if msg := recvMessage(t, h.Candidates); msg.Type != protocol.KindCandidate {
		t.Errorf("got %q on candidates channel", msg.Type)
	}
	if got := recvString(t, h.PeerLeft); got != "peer-a" {
		t.Errorf("peer left from %q, want peer-a", got)
	}
}

func TestHandlerIgnoresUnknownKinds(t *testing.T) {
	in := make(chan *protocol.Message, 2)
	h := newHandler(in)
	go h.Start()

	in <- &protocol.Message{Type: "bogus"}
	in <- &protocol.Message{Type: protocol.KindOffer}

	if msg := recvMessage(t, h.Offers); msg.Type != protocol.KindOffer {
		t.Errorf("got %q, want offer", msg.Type)
	}
}

func TestHandlerClosesDoneWhenStreamEnds(t *testing.T) {
	in := make(chan *protocol.Message)
	h := newHandler(in)
	go h.Start()

	close(in)

	select {
	case <-h.Done:
	case <-time.After(time.Second):
		t.Fatal("Done not closed after stream end")
	}
}

func recvString(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func recvMessage(t *testing.T, ch <-chan *protocol.Message) *protocol.Message {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}
