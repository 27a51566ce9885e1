package media

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
)

const rtpMTU = 1500

// rtpPump forwards RTP packets from a localhost UDP socket into a local track.
type rtpPump struct {
	conn  *net.UDPConn
	track *webrtc.TrackLocalStaticRTP
	log   *logging.Logger
}

func newRTPPump(addr string, track *webrtc.TrackLocalStaticRTP, log *logging.Logger) (*rtpPump, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &rtpPump{conn: conn, track: track, log: log}, nil
}

func (p *rtpPump) run(ctx context.Context) {
	defer p.conn.Close()

	buf := make([]byte, rtpMTU)
	for {
		// Short read deadline keeps the loop responsive to cancellation.
		_ = p.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))

		n, _, err := p.conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				select {
				case <-ctx.Done():
					return
				default:
					continue
				}
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			p.log.Warn().Err(err).Msg("rtp read failed")
			return
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			// Non-RTP traffic on the port is ignored.
			continue
		}
		if err := p.track.WriteRTP(&pkt); err != nil {
			p.log.Warn().Err(err).Msg("track write failed")
			return
		}
	}
}

func (p *rtpPump) close() { _ = p.conn.Close() }
