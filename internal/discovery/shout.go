package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/controlpet/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultShoutPort is the UDP port hubs broadcast their announcements to
	DefaultShoutPort = 4888

	// DefaultControlPort is the hub's TCP control port. Hubs send their
	// shouts from this port, so the datagram source is the control endpoint.
	DefaultControlPort = 4889

	// DefaultWebSocketPort is the hub's WebSocket control port
	DefaultWebSocketPort = 4890

	// DefaultDiscoverTimeout is how long Discover waits when no timeout is given
	DefaultDiscoverTimeout = 10 * time.Second

	// ShoutPrefix starts every hub announcement ("@shout:<device id>:;")
	ShoutPrefix = "@shout:"

	// UnknownHubName is used when an announcement carries no name
	UnknownHubName = "unknown"

	maxDatagramSize = 4096
)

// ShoutListener waits for a single hub announcement on a UDP socket.
type ShoutListener struct {
	conn net.PacketConn
}

// Listen binds a UDP socket on addr (e.g., ":4888") for hub announcements.
func Listen(addr string) (*ShoutListener, error) {
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for hub announcements on %s: %w", addr, err)
	}
	return &ShoutListener{conn: conn}, nil
}

// LocalAddr returns the bound address
func (l *ShoutListener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Close releases the socket
func (l *ShoutListener) Close() error {
	return l.conn.Close()
}

// Wait blocks until the first qualifying announcement arrives or timeout
// elapses. Datagrams that are not announcements are ignored and the wait
// continues against the same deadline.
//
// A timeout is not an error: Wait returns (nil, nil) and the caller decides
// whether to try again. Errors are only returned for socket failures or when
// ctx is cancelled.
func (l *ShoutListener) Wait(ctx context.Context, timeout time.Duration) (*Hub, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := l.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	// Unblock the read early if the caller gives up
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logging.Info("Discovery timed out", zap.Duration("timeout", timeout))
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read announcement: %w", err)
		}

		hub := ParseShout(buf[:n], from)
		if hub == nil {
			logging.Debug("Ignoring datagram that is not a hub announcement",
				zap.String("from", from.String()),
				zap.Int("length", n),
			)
			continue
		}

		logging.Info("Hub discovered",
			zap.String("name", hub.Name),
			zap.String("addr", hub.Address()),
		)
		return hub, nil
	}
}

// Discover listens on the well-known announcement port for one hub shout.
// It returns (nil, nil) if no hub announced itself within timeout.
func Discover(ctx context.Context, timeout time.Duration) (*Hub, error) {
	l, err := Listen(fmt.Sprintf(":%d", DefaultShoutPort))
	if err != nil {
		return nil, err
	}
	defer func() { _ = l.Close() }()

	return l.Wait(ctx, timeout)
}

// ParseShout turns an announcement datagram into a Hub. The hub's endpoint
// is the datagram's source address. Returns nil if data is not an
// announcement.
func ParseShout(data []byte, from net.Addr) *Hub {
	if !bytes.HasPrefix(data, []byte(ShoutPrefix)) || from == nil {
		return nil
	}

	ip, port, ok := splitAddr(from)
	if !ok {
		return nil
	}

	rest := string(data[len(ShoutPrefix):])
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		rest = rest[:i]
	}
	name := strings.TrimSpace(strings.SplitN(rest, ":", 2)[0])
	if name == "" {
		name = UnknownHubName
	}

	return &Hub{
		Name:         name,
		IP:           ip,
		Port:         port,
		Source:       SourceBroadcast,
		DiscoveredAt: time.Now(),
	}
}

func splitAddr(addr net.Addr) (string, int, bool) {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String(), udp.Port, true
	}

	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "", 0, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false
	}
	return host, port, true
}
