package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/config"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/detect"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/media"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/roomcode"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/session"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/ui"
)

var (
	flagServerURL string
	flagSTUN      string
	flagTURN      string
	flagTURNUser  string
	flagTURNPass  string
	flagRelay     bool
	flagDebug     bool

	flagRoom      string
	flagPipeline  string
	flagVideoPort int
	flagFrameRate int
)

var publishCmd = &cobra.Command{
	Use:     "publish",
	Aliases: []string{"p", "pub"},
	Short:   "Publish the local camera to a room",
	Long: `Publish the local camera stream and wait for a viewer to join.

The camera is captured with GStreamer, encoded to H264 and streamed peer to
peer once a viewer joins the room. Detection results come back on a data
channel.

Examples:
  peercam publish
  peercam publish --room AB12CD
  peercam publish --pipeline "libcamerasrc ! ..." --fps 15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPublish()
	},
}

func init() {
	publishCmd.Flags().StringVar(&flagServerURL, "server", "", "signaling server websocket URL")
	publishCmd.Flags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	publishCmd.Flags().StringVar(&flagTURN, "turn", "", "TURN server URL")
	publishCmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	publishCmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	publishCmd.Flags().BoolVar(&flagRelay, "relay", false, "force TURN relay mode")
	publishCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	publishCmd.Flags().StringVar(&flagRoom, "room", "", "room code to publish into (generated when empty)")
	publishCmd.Flags().StringVar(&flagPipeline, "pipeline", "", "GStreamer pipeline override")
	publishCmd.Flags().IntVar(&flagVideoPort, "video-port", 0, "localhost UDP port for the camera RTP")
	publishCmd.Flags().IntVar(&flagFrameRate, "fps", 10, "frame sample rate sent to the viewer")
	rootCmd.AddCommand(publishCmd)
}

func runPublish() error {
	cfg, err := config.LoadClient(config.Options{
		ServerURL:  flagServerURL,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagRelay,
		VideoPort:  flagVideoPort,
		Pipeline:   flagPipeline,
		Debug:      flagDebug,
	})
	if err != nil {
		return err
	}
	log := logging.NewConsole(cfg.Debug, "publish")

	// Acquire the camera before touching the network so media failures
	// surface immediately.
	camera, err := media.NewCameraSource(cfg.Pipeline, cfg.VideoPort, log)
	if err != nil {
		return err
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	defer stopSpinner()
	conn, err := NewConnectionContext(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	stopSpinner()

	room := strings.TrimSpace(flagRoom)
	if room == "" {
		room = roomcode.Generate()
	}
	conn.Client.Join(room)
	ui.RenderRoomInfo(room)

	peer, sess, err := newPeerSession(conn, room)
	if err != nil {
		return err
	}
	defer sess.Stop()

	sess.SetMediaRelease(camera.Stop)

	if _, err := peer.AddTrack(camera.Track()); err != nil {
		return err
	}
	dc, err := peer.CreateDataChannel(detect.ChannelLabel)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := camera.Start(ctx); err != nil {
		return session.WrapError("camera", session.ErrMediaUnavailable, err.Error())
	}

	stamper := newFrameStamper(dc, flagFrameRate, log)
	dc.OnOpen(func() { go stamper.run(ctx) })
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		reportDetections(msg.Data, log)
	})

	connected := make(chan struct{}, 1)
	failed := make(chan struct{}, 1)
	peer.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		switch st {
		case webrtc.PeerConnectionStateConnected:
			select {
			case connected <- struct{}{}:
			default:
			}
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			select {
			case failed <- struct{}{}:
			default:
			}
		}
	})

	stopSpinner = ui.RunWaitingSpinner("Waiting for a viewer to join...")
	defer stopSpinner()

	go pumpCandidates(conn, sess)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	for {
		select {
		case peerID := <-conn.Handler.PeerJoined:
			stopSpinner()
			ui.PrintSuccessf("Viewer joined (%s), negotiating...", shortID(peerID))
			if err := sess.StartOffer(); err != nil {
				return err
			}

		case msg := <-conn.Handler.Answers:
			if err := sess.HandleAnswer(msg); err != nil {
				log.Warn().Err(err).Msg("answer rejected")
			}

		case <-connected:
			ui.PrintSuccess("Streaming. Press Ctrl+C to stop.")

		case <-failed:
			return fmt.Errorf("peer connection failed")

		case <-conn.Handler.PeerLeft:
			ui.PrintWarning("Viewer left, stopping stream.")
			return nil

		case <-conn.Handler.Done:
			return session.NewError("publish", session.ErrSignalingError)

		case <-sig:
			fmt.Println()
			ui.PrintInfo("Stopping.")
			return nil
		}
	}
}

// frameStamper sends one timestamped frame sample per tick so the viewer can
// measure network and end-to-end latency against real wall time.
type frameStamper struct {
	dc       *webrtc.DataChannel
	interval time.Duration
	log      *logging.Logger
}

func newFrameStamper(dc *webrtc.DataChannel, fps int, log *logging.Logger) *frameStamper {
	if fps <= 0 {
		fps = 10
	}
	return &frameStamper{dc: dc, interval: time.Second / time.Duration(fps), log: log}
}

func (f *frameStamper) run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			msg, err := detect.NewMessage(detect.MessageTypeFrameSample, detect.FrameSamplePayload{
				Seq:        seq,
				CapturedAt: time.Now().UnixMicro(),
			})
			if err != nil {
				continue
			}
			b, err := msg.Encode()
			if err != nil {
				continue
			}
			if err := f.dc.Send(b); err != nil {
				f.log.Debug().Err(err).Msg("frame sample send failed")
				return
			}
		}
	}
}

func reportDetections(data []byte, log *logging.Logger) {
	msg, err := detect.DecodeMessage(data)
	if err != nil || msg.Type != detect.MessageTypeDetections {
		return
	}
	var payload detect.DetectionsPayload
	if err := msg.DecodePayload(&payload); err != nil {
		return
	}
	if len(payload.Detections) > 0 {
		log.Debug().
			Uint64("seq", payload.Seq).
			Int("objects", len(payload.Detections)).
			Msg("detections received")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
