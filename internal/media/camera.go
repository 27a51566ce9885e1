package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
)

// DefaultPipeline encodes the default camera to H264 RTP on localhost.
// Devices override it via configuration when their capture element differs
// (libcamerasrc on a Pi, avfvideosrc on macOS, v4l2src elsewhere).
const DefaultPipeline = `v4l2src ! video/x-raw,width=640,height=480,framerate=30/1 ! videoconvert ! x264enc tune=zerolatency bitrate=800 speed-preset=ultrafast key-int-max=60 ! h264parse config-interval=1 ! rtph264pay pt=96 config-interval=1 ! udpsink host=127.0.0.1 port=%d`

// CameraSource is the local media attached to a peer connection: a GStreamer
// process emitting RTP to a localhost UDP port, pumped into a static RTP
// track. Stop releases the capture process and the socket synchronously.
type CameraSource struct {
	track    *webrtc.TrackLocalStaticRTP
	pipeline string
	port     int
	cancel   context.CancelFunc
	cmd      *exec.Cmd
	pump     *rtpPump
	log      *logging.Logger
}

// NewCameraSource builds the video track for the given pipeline. An empty
// pipeline selects the default; %d placeholders receive the UDP port.
func NewCameraSource(pipeline string, port int, log *logging.Logger) (*CameraSource, error) {
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		"video", "peercam-h264",
	)
	if err != nil {
		return nil, fmt.Errorf("create video track: %w", err)
	}

	if pipeline == "" {
		pipeline = DefaultPipeline
	}
	if strings.Contains(pipeline, "%d") {
		pipeline = fmt.Sprintf(pipeline, port)
	}

	return &CameraSource{track: track, pipeline: pipeline, port: port, log: log}, nil
}

// Track returns the attachable local track.
func (c *CameraSource) Track() webrtc.TrackLocal { return c.track }

// Start launches the capture process and the RTP pump. Media-acquisition
// failures surface here, before any negotiation happens.
func (c *CameraSource) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	cmd, err := startGst(ctx, c.pipeline, c.log)
	if err != nil {
		cancel()
		return err
	}
	c.cmd = cmd

	pump, err := newRTPPump(fmt.Sprintf("127.0.0.1:%d", c.port), c.track, c.log)
	if err != nil {
		cancel()
		return err
	}
	c.pump = pump
	go pump.run(ctx)

	c.log.Info().Int("port", c.port).Msg("camera source started")
	return nil
}

// Stop tears the source down; safe to call before Start or more than once.
func (c *CameraSource) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.pump != nil {
		c.pump.close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Wait()
	}
	c.log.Info().Msg("camera source stopped")
}

// startGst spawns gst-launch-1.0 with the element pipeline.
func startGst(ctx context.Context, pipeline string, log *logging.Logger) (*exec.Cmd, error) {
	args := append([]string{"-e"}, strings.Fields(pipeline)...)
	cmd := exec.CommandContext(ctx, "gst-launch-1.0", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start gst-launch: %w", err)
	}
	log.Debug().Strs("args", cmd.Args).Msg("gst-launch started")
	return cmd, nil
}
