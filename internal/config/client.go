package config

import (
	"fmt"
	"os"
)

// Default configuration values for the device CLI.
const (
	DefaultServerURL = "ws://localhost:8080/ws"
	DefaultSTUN      = "stun:stun.l.google.com:19302"
	DefaultVideoPort = 5004
)

// Client holds the device-side configuration.
type Client struct {
	// ServerURL is the signaling server websocket endpoint.
	ServerURL string

	// ICE servers for WebRTC.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool

	// VideoPort is the localhost UDP port the camera pipeline emits RTP to.
	VideoPort int

	// Pipeline overrides the default GStreamer camera pipeline.
	Pipeline string

	// MonitorPort, when non-zero, serves /metrics for the watch command.
	MonitorPort int

	Debug bool
}

// Options carries CLI flag overrides into Load.
type Options struct {
	ServerURL   string
	STUNServer  string
	TURNServer  string
	TURNUser    string
	TURNPass    string
	ForceRelay  bool
	VideoPort   int
	Pipeline    string
	MonitorPort int
	Debug       bool
}

// LoadClient resolves configuration with the priority:
// CLI flags > environment variables > defaults.
func LoadClient(opts Options) (*Client, error) {
	serverURL := firstOf(opts.ServerURL, os.Getenv("PEERCAM_SERVER_URL"), DefaultServerURL)
	stun := firstOf(opts.STUNServer, os.Getenv("PEERCAM_STUN_SERVER"), DefaultSTUN)
	turn := firstOf(opts.TURNServer, os.Getenv("PEERCAM_TURN_SERVER"), "")
	turnUser := firstOf(opts.TURNUser, os.Getenv("PEERCAM_TURN_USERNAME"), "")
	turnPass := firstOf(opts.TURNPass, os.Getenv("PEERCAM_TURN_PASSWORD"), "")

	videoPort := opts.VideoPort
	if videoPort == 0 {
		videoPort = DefaultVideoPort
	}

	cfg := &Client{
		ServerURL:   serverURL,
		STUNServer:  stun,
		TURNServer:  turn,
		TURNUser:    turnUser,
		TURNPass:    turnPass,
		ForceRelay:  opts.ForceRelay,
		VideoPort:   videoPort,
		Pipeline:    firstOf(opts.Pipeline, os.Getenv("PEERCAM_GST_PIPELINE"), ""),
		MonitorPort: opts.MonitorPort,
		Debug:       opts.Debug,
	}

	if cfg.ForceRelay && cfg.GetTURNServers() == nil {
		return nil, fmt.Errorf("cannot force relay mode without a TURN server configured")
	}
	return cfg, nil
}

// GetSTUNServers returns STUN server URLs.
func (c *Client) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Client) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns the TURN username and password.
func (c *Client) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
