package session

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/protocol"
)

// State is the session's negotiation state. Closed is terminal: a new
// Session is required to reconnect.
type State string

const (
	StateIdle        State = "idle"
	StateNegotiating State = "negotiating"
	StateOfferSent   State = "offer-sent"
	StateConnected   State = "connected"
	StateClosed      State = "closed"
)

// peerConn is the slice of the underlying WebRTC connection the negotiation
// state machine drives. *Peer implements it over pion; tests use a fake.
type peerConn interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	SetRemoteDescription(desc webrtc.SessionDescription) error
	AddICECandidate(c webrtc.ICECandidateInit) error
	HasRemoteDescription() bool
	Close() error
}

// RelayFunc transmits a signaling payload to the other room members.
type RelayFunc func(kind string, payload any) error

// Session drives one peer-to-peer connection to completion using the
// coordinator as a blind relay. At most one negotiation is in flight per
// instance.
//
// The one correctness-critical rule lives here: a received ICE candidate is
// never applied before the remote description is set. Early arrivals are
// buffered and flushed in arrival order the moment the description lands.
type Session struct {
	mu      sync.Mutex
	state   State
	pc      peerConn
	relay   RelayFunc
	pending []webrtc.ICECandidateInit

	releaseMedia func()
	onState      func(State)
	log          *logging.Logger
}

func New(pc peerConn, relay RelayFunc, log *logging.Logger) *Session {
	return &Session{state: StateIdle, pc: pc, relay: relay, log: log}
}

// OnStateChange registers a state observer. The callback fires synchronously
// from session operations and must not call back into the session.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

// SetMediaRelease registers the media teardown hook invoked on Stop.
func (s *Session) SetMediaRelease(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseMedia = fn
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartOffer runs the offerer leg: produce a local offer, relay it, and wait
// for the answer via HandleAnswer.
func (s *Session) StartOffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return WrapError("create offer", ErrInvalidState, string(s.state))
	}
	s.setState(StateNegotiating)

	offer, err := s.pc.CreateOffer()
	if err != nil {
		s.setState(StateIdle)
		return NewError("create offer", err)
	}
	if err := s.relay(protocol.KindOffer, offer); err != nil {
		s.setState(StateIdle)
		return NewError("send offer", err)
	}
	s.setState(StateOfferSent)
	return nil
}

// HandleOffer runs the answerer leg: apply the remote offer, produce and
// relay the answer. Once local and remote descriptions are both set the
// session is connected; the transport reports actual connectivity
// asynchronously.
func (s *Session) HandleOffer(msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	if s.state != StateIdle {
		return WrapError("handle offer", ErrUnexpectedSignal, "offer in state "+string(s.state))
	}
	s.setState(StateNegotiating)

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(msg.Payload, &offer); err != nil {
		s.setState(StateIdle)
		return NewError("parse offer", err)
	}

	answer, err := s.pc.CreateAnswer(offer)
	if err != nil {
		s.setState(StateIdle)
		return NewError("create answer", err)
	}
	s.flushPending()

	if err := s.relay(protocol.KindAnswer, answer); err != nil {
		return NewError("send answer", err)
	}
	s.setState(StateConnected)
	return nil
}

// HandleAnswer applies the remote answer to a previously sent offer. An
// answer in any other state is the out-of-order case and surfaces as a
// recoverable negotiation error.
func (s *Session) HandleAnswer(msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	if s.state != StateOfferSent {
		return WrapError("handle answer", ErrUnexpectedSignal, "answer in state "+string(s.state))
	}

	var answer webrtc.SessionDescription
	if err := json.Unmarshal(msg.Payload, &answer); err != nil {
		return NewError("parse answer", err)
	}
	if err := s.pc.SetRemoteDescription(answer); err != nil {
		return NewError("set remote description", err)
	}
	s.flushPending()
	s.setState(StateConnected)
	return nil
}

// HandleCandidate applies a remote ICE candidate, or buffers it when the
// remote description is not set yet.
func (s *Session) HandleCandidate(msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}

	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal(msg.Payload, &cand); err != nil {
		return NewError("parse candidate", err)
	}

	if !s.pc.HasRemoteDescription() {
		s.pending = append(s.pending, cand)
		return nil
	}
	if err := s.pc.AddICECandidate(cand); err != nil {
		return NewError("add candidate", err)
	}
	return nil
}

// SendLocalCandidate relays a locally discovered candidate immediately,
// regardless of negotiation state.
func (s *Session) SendLocalCandidate(cand webrtc.ICECandidateInit) {
	s.mu.Lock()
	closed := s.state == StateClosed
	s.mu.Unlock()
	if closed {
		return
	}
	if err := s.relay(protocol.KindCandidate, cand); err != nil {
		s.log.Warn().Err(err).Msg("failed to relay local candidate")
	}
}

// Stop closes the session from any state, releasing media and the underlying
// connection synchronously. Signaling that arrives afterwards is ignored.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}
	s.setState(StateClosed)
	s.pending = nil

	if s.releaseMedia != nil {
		s.releaseMedia()
	}
	if err := s.pc.Close(); err != nil {
		s.log.Warn().Err(err).Msg("peer connection close failed")
	}
}

// flushPending applies buffered candidates in arrival order. Callers hold the
// lock and have just set the remote description. Individual failures are
// logged and skipped; ordering of the rest is preserved.
func (s *Session) flushPending() {
	for _, cand := range s.pending {
		if err := s.pc.AddICECandidate(cand); err != nil {
			s.log.Warn().Err(err).Msg("buffered candidate rejected")
		}
	}
	s.pending = nil
}

func (s *Session) setState(next State) {
	s.state = next
	if s.onState != nil {
		s.onState(next)
	}
}
