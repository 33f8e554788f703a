package simulator

import (
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/protocol"
)

// shoutLoop announces the hub every ShoutInterval from the control port
func (s *Server) shoutLoop() {
	dst, err := net.ResolveUDPAddr("udp4", s.config.ShoutAddr)
	if err != nil {
		logging.Error("Invalid shout address", zap.String("addr", s.config.ShoutAddr), zap.Error(err))
		return
	}

	shout := protocol.Encode(protocol.CmdShout, s.config.DeviceID, "")
	ticker := time.NewTicker(s.config.ShoutInterval)
	defer ticker.Stop()

	for {
		if _, err := s.udpConn.WriteToUDP(shout, dst); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logging.Warn("Failed to send shout", zap.String("dst", dst.String()), zap.Error(err))
		} else {
			logging.Debug("Shout sent", zap.String("dst", dst.String()))
		}

		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// serveUDP handles commands sent as datagrams to the control port. Each
// datagram is framed on its own and replies go back to its sender.
func (s *Server) serveUDP() {
	buf := make([]byte, protocol.MaxMessageLen)

	for {
		n, from, err := s.udpConn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
				return
			}
			logging.Warn("UDP read failed", zap.Error(err))
			continue
		}

		p := &udpPeer{conn: s.udpConn, addr: from}
		s.feed(p, protocol.NewFramer(), buf[:n])
	}
}
