package cli

import (
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/config"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/session"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/signaling"
)

// ConnectionContext bundles everything a command needs once it is connected
// to the signaling server.
type ConnectionContext struct {
	Cfg     *config.Client
	Log     *logging.Logger
	Client  *signaling.Client
	Handler *signaling.Handler
}

// NewConnectionContext connects to the signaling server and starts routing
// incoming messages.
func NewConnectionContext(cfg *config.Client, log *logging.Logger) (*ConnectionContext, error) {
	client := signaling.NewClient(cfg.ServerURL, log)
	if err := client.Connect(); err != nil {
		return nil, err
	}

	handler := signaling.NewHandler(client)
	go handler.Start()

	return &ConnectionContext{Cfg: cfg, Log: log, Client: client, Handler: handler}, nil
}

func (c *ConnectionContext) Close() {
	c.Client.Close()
}

// newPeerSession builds the peer connection and its negotiation session bound
// to one room, with local candidate relay wired up.
func newPeerSession(c *ConnectionContext, room string) (*session.Peer, *session.Session, error) {
	peer, err := session.NewPeer(c.Cfg)
	if err != nil {
		return nil, nil, err
	}

	relay := func(kind string, payload any) error {
		return c.Client.Relay(kind, room, payload)
	}
	sess := session.New(peer, relay, c.Log)
	peer.OnICECandidate(sess.SendLocalCandidate)

	return peer, sess, nil
}

// pumpCandidates applies remote candidates to the session until the signaling
// stream ends. Run it in its own goroutine once the session exists.
func pumpCandidates(c *ConnectionContext, sess *session.Session) {
	for {
		select {
		case msg := <-c.Handler.Candidates:
			if err := sess.HandleCandidate(msg); err != nil {
				c.Log.Warn().Err(err).Msg("remote candidate rejected")
			}
		case <-c.Handler.Done:
			return
		}
	}
}
