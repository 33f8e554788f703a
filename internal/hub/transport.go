package hub

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Transport names accepted by Config.Transport
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// Conn is a byte stream to the hub. WriteFrame writes one complete encoded
// message.
type Conn interface {
	Read(p []byte) (int, error)
	WriteFrame(frame []byte) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() string
	Close() error
}

// Dialer opens a Conn to the hub at addr (host:port)
type Dialer func(ctx context.Context, addr string) (Conn, error)

// DialerFor returns the dialer for a transport name. An empty name means TCP.
func DialerFor(transport string) (Dialer, error) {
	switch transport {
	case "", TransportTCP:
		return DialTCP, nil
	case TransportWebSocket, "ws":
		return DialWebSocket, nil
	default:
		return nil, NewInvalidArgumentError(fmt.Sprintf("unknown transport %q (want tcp or websocket)", transport))
	}
}

// DialTCP connects to the hub's raw control port
func DialTCP(ctx context.Context, addr string) (Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &tcpConn{conn: c}, nil
}

type tcpConn struct {
	conn net.Conn
}

func (c *tcpConn) Read(p []byte) (int, error) { return c.conn.Read(p) }

func (c *tcpConn) WriteFrame(frame []byte) error {
	_, err := c.conn.Write(frame)
	return err
}

func (c *tcpConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *tcpConn) RemoteAddr() string                 { return c.conn.RemoteAddr().String() }
func (c *tcpConn) Close() error                       { return c.conn.Close() }

// DialWebSocket connects to the hub's websocket bridge at ws://addr/. Each
// outbound message goes in its own text frame; inbound frames are treated
// as a byte stream and framed like TCP input.
func DialWebSocket(ctx context.Context, addr string) (Conn, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/"}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", u.String(), err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn    *websocket.Conn
	pending []byte
}

// Read is only called from the session reader goroutine
func (c *wsConn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.pending = data
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *wsConn) WriteFrame(frame []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *wsConn) RemoteAddr() string                 { return c.conn.RemoteAddr().String() }

func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
