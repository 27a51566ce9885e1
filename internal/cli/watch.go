package cli

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/config"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/detect"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/metrics"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/monitoring"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/session"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/ui"
)

var flagMonitorPort int

var watchCmd = &cobra.Command{
	Use:     "watch <room-code>",
	Aliases: []string{"w"},
	Short:   "Watch a published camera and run object detection",
	Long: `Join a room as the viewer, receive the camera stream and run object
detection on sampled frames. Detection results are sent back to the
publisher; live latency stats are shown while the session runs.

Examples:
  peercam watch AB12CD
  peercam watch AB12CD --monitor-port 9091`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(args[0])
	},
}

func init() {
	watchCmd.Flags().StringVar(&flagServerURL, "server", "", "signaling server websocket URL")
	watchCmd.Flags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	watchCmd.Flags().StringVar(&flagTURN, "turn", "", "TURN server URL")
	watchCmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	watchCmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	watchCmd.Flags().BoolVar(&flagRelay, "relay", false, "force TURN relay mode")
	watchCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	watchCmd.Flags().IntVar(&flagMonitorPort, "monitor-port", 0, "serve Prometheus metrics on this port")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return fmt.Errorf("room code is required")
	}

	cfg, err := config.LoadClient(config.Options{
		ServerURL:   flagServerURL,
		STUNServer:  flagSTUN,
		TURNServer:  flagTURN,
		TURNUser:    flagTURNUser,
		TURNPass:    flagTURNPass,
		ForceRelay:  flagRelay,
		MonitorPort: flagMonitorPort,
		Debug:       flagDebug,
	})
	if err != nil {
		return err
	}
	log := logging.NewConsole(cfg.Debug, "watch")

	reg := prometheus.NewRegistry()
	pm := metrics.NewPipelineMetrics(reg)
	recorder := metrics.NewRecorder(pm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MonitorPort > 0 {
		mon := monitoring.New(monitoring.Config{Port: cfg.MonitorPort, MetricsOn: true}, "watch", reg, log)
		go mon.Run()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			_ = mon.Shutdown(shutdownCtx)
		}()
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	defer stopSpinner()
	conn, err := NewConnectionContext(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	stopSpinner()

	conn.Client.Join(room)

	peer, sess, err := newPeerSession(conn, room)
	if err != nil {
		return err
	}
	defer sess.Stop()

	worker := detect.NewWorker(detect.NewMockDetector(), recorder, log)
	go worker.Run(ctx)

	peer.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().Str("codec", track.Codec().MimeType).Msg("remote track started")
		go consumeTrack(ctx, track, pm)
	})

	var resultsChannel atomic.Pointer[webrtc.DataChannel]
	peer.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != detect.ChannelLabel {
			return
		}
		resultsChannel.Store(dc)
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			handleFrameSample(msg.Data, worker, log)
		})
	})

	done := make(chan error, 1)
	go func() { done <- negotiate(conn, sess) }()
	go pumpCandidates(conn, sess)

	stopSpinner = ui.RunWaitingSpinner("Waiting for the publisher's offer...")

	// One consumer fans results out: back to the publisher over the data
	// channel, and to the live view.
	results := make(chan detect.Result, 16)
	go func() {
		defer close(results)
		for res := range worker.Results() {
			if dc := resultsChannel.Load(); dc != nil {
				returnResult(dc, res, log)
			}
			select {
			case results <- res:
			default:
			}
		}
	}()

	start := time.Now()
	model := ui.NewWatchModel(room, recorder.Snapshot, results, done)
	stopSpinner()

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.WatchModel); ok && m.Err() != nil {
		ui.PrintWarning(m.Err().Error())
	}

	cancel()
	ui.RenderSessionSummary(recorder.Snapshot(), time.Since(start))
	return nil
}

// negotiate runs the answerer leg: wait for the publisher's offer, answer it,
// then stay resident until the session ends.
func negotiate(conn *ConnectionContext, sess *session.Session) error {
	for {
		select {
		case msg := <-conn.Handler.Offers:
			if err := sess.HandleOffer(msg); err != nil {
				return err
			}

		case <-conn.Handler.PeerLeft:
			return session.WrapError("watch", session.ErrPeerDisconnected, "publisher left the room")

		case <-conn.Handler.Done:
			return session.NewError("watch", session.ErrSignalingError)
		}
	}
}

// consumeTrack drains the remote video track, counting frames on RTP marker
// bits. Decoding is not needed; detection runs on the sampled frame
// timestamps from the data channel.
func consumeTrack(ctx context.Context, track *webrtc.TrackRemote, pm *metrics.PipelineMetrics) {
	for {
		if ctx.Err() != nil {
			return
		}
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		pm.BytesReceived.Add(float64(len(pkt.Payload)))
		if pkt.Marker {
			pm.FramesReceived.Inc()
		}
	}
}

func handleFrameSample(data []byte, worker *detect.Worker, log *logging.Logger) {
	msg, err := detect.DecodeMessage(data)
	if err != nil || msg.Type != detect.MessageTypeFrameSample {
		return
	}
	var payload detect.FrameSamplePayload
	if err := msg.DecodePayload(&payload); err != nil {
		log.Debug().Err(err).Msg("bad frame sample")
		return
	}
	worker.Submit(detect.Frame{
		Seq:        payload.Seq,
		CapturedAt: time.UnixMicro(payload.CapturedAt),
		ReceivedAt: time.Now(),
	})
}

// returnResult sends one inference result back to the publisher.
func returnResult(dc *webrtc.DataChannel, res detect.Result, log *logging.Logger) {
	msg, err := detect.NewMessage(detect.MessageTypeDetections, detect.DetectionsPayload{
		Seq:        res.Frame.Seq,
		InferredAt: res.InferredAt.UnixMicro(),
		Detections: res.Detections,
	})
	if err != nil {
		return
	}
	b, err := msg.Encode()
	if err != nil {
		return
	}
	if err := dc.Send(b); err != nil {
		log.Debug().Err(err).Msg("result send failed")
	}
}
