package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/protocol"
)

// fakePeer records the order of operations against the underlying connection.
type fakePeer struct {
	remoteSet bool
	applied   []string // candidate strings, in application order
	closed    bool
	failApply bool
}

func (f *fakePeer) CreateOffer() (webrtc.SessionDescription, error) {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}, nil
}

func (f *fakePeer) CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	f.remoteSet = true
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}, nil
}

func (f *fakePeer) SetRemoteDescription(webrtc.SessionDescription) error {
	f.remoteSet = true
	return nil
}

func (f *fakePeer) AddICECandidate(c webrtc.ICECandidateInit) error {
	if !f.remoteSet {
		return errors.New("candidate applied before remote description")
	}
	if f.failApply {
		return errors.New("transport rejected candidate")
	}
	f.applied = append(f.applied, c.Candidate)
	return nil
}

func (f *fakePeer) HasRemoteDescription() bool { return f.remoteSet }
func (f *fakePeer) Close() error               { f.closed = true; return nil }

type sentSignal struct {
	kind    string
	payload any
}

func newTestSession(pc peerConn) (*Session, *[]sentSignal) {
	var sent []sentSignal
	relay := func(kind string, payload any) error {
		sent = append(sent, sentSignal{kind: kind, payload: payload})
		return nil
	}
	return New(pc, relay, logging.New(false)), &sent
}

func candidateMsg(t *testing.T, c string) *protocol.Message {
	t.Helper()
	raw, err := json.Marshal(webrtc.ICECandidateInit{Candidate: c})
	if err != nil {
		t.Fatal(err)
	}
	return &protocol.Message{Type: protocol.KindCandidate, Payload: raw}
}

func sdpMsg(t *testing.T, kind string, desc webrtc.SessionDescription) *protocol.Message {
	t.Helper()
	raw, err := json.Marshal(desc)
	if err != nil {
		t.Fatal(err)
	}
	return &protocol.Message{Type: kind, Payload: raw}
}

func TestOffererFlow(t *testing.T) {
	pc := &fakePeer{}
	s, sent := newTestSession(pc)

	if err := s.StartOffer(); err != nil {
		t.Fatalf("StartOffer: %v", err)
	}
	if s.State() != StateOfferSent {
		t.Fatalf("state = %s, want %s", s.State(), StateOfferSent)
	}
	if len(*sent) != 1 || (*sent)[0].kind != protocol.KindOffer {
		t.Fatalf("expected one relayed offer, got %+v", *sent)
	}

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}
	if err := s.HandleAnswer(sdpMsg(t, protocol.KindAnswer, answer)); err != nil {
		t.Fatalf("HandleAnswer: %v", err)
	}
	if s.State() != StateConnected {
		t.Fatalf("state = %s, want %s", s.State(), StateConnected)
	}
}

func TestAnswererFlow(t *testing.T) {
	pc := &fakePeer{}
	s, sent := newTestSession(pc)

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}
	if err := s.HandleOffer(sdpMsg(t, protocol.KindOffer, offer)); err != nil {
		t.Fatalf("HandleOffer: %v", err)
	}
	if s.State() != StateConnected {
		t.Fatalf("state = %s, want %s", s.State(), StateConnected)
	}
	if len(*sent) != 1 || (*sent)[0].kind != protocol.KindAnswer {
		t.Fatalf("expected one relayed answer, got %+v", *sent)
	}
}

// Three candidates arrive before the remote offer; they must be applied only
// after the remote description is set, in arrival order.
func TestCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	pc := &fakePeer{}
	s, _ := newTestSession(pc)

	for i := 1; i <= 3; i++ {
		if err := s.HandleCandidate(candidateMsg(t, fmt.Sprintf("cand-%d", i))); err != nil {
			t.Fatalf("HandleCandidate #%d: %v", i, err)
		}
	}
	if len(pc.applied) != 0 {
		t.Fatalf("%d candidates applied before remote description", len(pc.applied))
	}

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}
	if err := s.HandleOffer(sdpMsg(t, protocol.KindOffer, offer)); err != nil {
		t.Fatalf("HandleOffer: %v", err)
	}

	want := []string{"cand-1", "cand-2", "cand-3"}
	if len(pc.applied) != len(want) {
		t.Fatalf("applied %d candidates, want %d", len(pc.applied), len(want))
	}
	for i, c := range want {
		if pc.applied[i] != c {
			t.Errorf("applied[%d] = %q, want %q (FIFO order broken)", i, pc.applied[i], c)
		}
	}

	// Candidates arriving after the description apply immediately.
	if err := s.HandleCandidate(candidateMsg(t, "cand-4")); err != nil {
		t.Fatalf("HandleCandidate after description: %v", err)
	}
	if pc.applied[len(pc.applied)-1] != "cand-4" {
		t.Fatal("late candidate was not applied immediately")
	}
}

func TestAnswerBeforeOfferIsNegotiationError(t *testing.T) {
	pc := &fakePeer{}
	s, _ := newTestSession(pc)

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}
	err := s.HandleAnswer(sdpMsg(t, protocol.KindAnswer, answer))
	if !errors.Is(err, ErrUnexpectedSignal) {
		t.Fatalf("err = %v, want ErrUnexpectedSignal", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want %s (error must be recoverable)", s.State(), StateIdle)
	}
}

func TestMalformedOfferIsNegotiationError(t *testing.T) {
	pc := &fakePeer{}
	s, _ := newTestSession(pc)

	err := s.HandleOffer(&protocol.Message{Type: protocol.KindOffer, Payload: []byte("{not json")})
	if err == nil {
		t.Fatal("malformed offer must surface an error")
	}
	var negErr *NegotiationError
	if !errors.As(err, &negErr) {
		t.Fatalf("err = %T, want *NegotiationError", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want %s", s.State(), StateIdle)
	}
}

func TestStopIsTerminalAndIgnoresLateSignals(t *testing.T) {
	pc := &fakePeer{}
	s, sent := newTestSession(pc)

	released := false
	s.SetMediaRelease(func() { released = true })

	s.Stop()
	if s.State() != StateClosed {
		t.Fatalf("state = %s, want %s", s.State(), StateClosed)
	}
	if !pc.closed {
		t.Fatal("underlying connection not closed")
	}
	if !released {
		t.Fatal("media release hook not invoked")
	}

	// Late signaling is ignored without errors.
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}
	if err := s.HandleOffer(sdpMsg(t, protocol.KindOffer, offer)); err != nil {
		t.Fatalf("offer after close: %v", err)
	}
	if err := s.HandleCandidate(candidateMsg(t, "late")); err != nil {
		t.Fatalf("candidate after close: %v", err)
	}
	s.SendLocalCandidate(webrtc.ICECandidateInit{Candidate: "local"})
	if len(*sent) != 0 {
		t.Fatalf("closed session relayed %d messages, want 0", len(*sent))
	}
	if s.State() != StateClosed {
		t.Fatal("closed must be terminal")
	}

	// Stop twice is fine.
	s.Stop()
}

func TestStateObserver(t *testing.T) {
	pc := &fakePeer{}
	s, _ := newTestSession(pc)

	var states []State
	s.OnStateChange(func(st State) { states = append(states, st) })

	if err := s.StartOffer(); err != nil {
		t.Fatal(err)
	}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}
	if err := s.HandleAnswer(sdpMsg(t, protocol.KindAnswer, answer)); err != nil {
		t.Fatal(err)
	}
	s.Stop()

	want := []State{StateNegotiating, StateOfferSent, StateConnected, StateClosed}
	if len(states) != len(want) {
		t.Fatalf("observed %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("observed %v, want %v", states, want)
		}
	}
}
